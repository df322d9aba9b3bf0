package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/gigflow-be/internal/market"
	"github.com/cuongbtq/gigflow-be/internal/notify"
	"github.com/cuongbtq/gigflow-be/shared/database"
)

const callerKey = "gigflow.caller"

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Service  *market.Service
	Bus      *notify.Bus
	DBClient *database.Client

	ServiceName    string
	IdentityHeader string
	NameHeader     string
	BufferSize     int
	Keepalive      time.Duration
}

// SetCaller stores the authenticated identity on the request context
func SetCaller(c *gin.Context, caller market.Caller) {
	c.Set(callerKey, caller)
}

// CallerFrom returns the identity stored by SetCaller
func CallerFrom(c *gin.Context) (market.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return market.Caller{}, false
	}
	caller, ok := v.(market.Caller)
	return caller, ok && caller.ID != ""
}

// MarketHandler handles gig and bid HTTP requests
type MarketHandler struct {
	logger  *slog.Logger
	service *market.Service
}

// NewMarketHandler creates a new MarketHandler instance
func NewMarketHandler(deps *Dependencies) *MarketHandler {
	return &MarketHandler{
		logger:  deps.Logger,
		service: deps.Service,
	}
}
