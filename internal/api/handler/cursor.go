package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/gigflow-be/internal/market"
)

const cursorSep = "|"

var errMalformedCursor = errors.New("malformed cursor")

// DecodeBidCursor reads the opaque "my bids" cursor. An empty string is the
// first page.
func DecodeBidCursor(raw string) (*market.BidCursor, error) {
	if raw == "" {
		return nil, nil
	}

	plain, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}

	nanos, bidID, ok := strings.Cut(string(plain), cursorSep)
	if !ok || bidID == "" || strings.Contains(bidID, cursorSep) {
		return nil, errMalformedCursor
	}

	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad position: %v", errMalformedCursor, err)
	}

	// Keyset comparisons on SQLite are textual, so the zone must match storage
	return &market.BidCursor{CreatedAt: time.Unix(0, n).UTC(), BidID: bidID}, nil
}

// EncodeBidCursor is the inverse of DecodeBidCursor; nil encodes as "".
func EncodeBidCursor(c *market.BidCursor) string {
	if c == nil {
		return ""
	}
	plain := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + cursorSep + c.BidID
	return base64.RawURLEncoding.EncodeToString([]byte(plain))
}
