// Package notify delivers marketplace events to the live channels of the
// identities they target. Delivery is best effort: an event that finds no
// live channel is dropped.
package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind is the type of a notification event, also used as the SSE event name.
type Kind string

const (
	KindNewBid      Kind = "new_bid"
	KindHired       Kind = "hired"
	KindBidRejected Kind = "bid_rejected"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNewBid, KindHired, KindBidRejected:
		return true
	}
	return false
}

// Payload is what the client receives.
type Payload struct {
	GigID      string    `json:"gigId"`
	GigTitle   string    `json:"gigTitle,omitempty"`
	BidID      string    `json:"bidId,omitempty"`
	BidderID   string    `json:"bidderId,omitempty"`
	BidderName string    `json:"bidderName,omitempty"`
	Price      int64     `json:"price"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event is a notification addressed to one identity.
type Event struct {
	Kind    Kind    `json:"kind"`
	Target  string  `json:"target"`
	Payload Payload `json:"payload"`
}

// Validate checks the fields a relay envelope must carry.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Target == "" {
		return fmt.Errorf("event target is required")
	}
	return nil
}

// Marshal encodes the event for a relay.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes and validates a relay envelope.
func UnmarshalEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
