package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/gigflow-be/internal/api/dto"
	"github.com/cuongbtq/gigflow-be/internal/market"
)

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind market.Kind) int {
	switch kind {
	case market.KindNotFound:
		return http.StatusNotFound
	case market.KindForbidden:
		return http.StatusForbidden
	case market.KindInvalidState:
		return http.StatusUnprocessableEntity
	case market.KindConflict:
		return http.StatusConflict
	case market.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := market.KindOf(err)
	message := "Internal server error"

	var e *market.Error
	if errors.As(err, &e) && kind != market.KindServer {
		message = e.Message
	}

	if kind == market.KindServer {
		logger.Error("Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		_ = c.Error(err)
	}

	c.JSON(StatusFor(kind), dto.ErrorResponse{
		Kind:  string(kind),
		Error: message,
	})
}

func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Kind:  string(market.KindValidation),
		Error: message,
	})
}
