package notify

import (
	"io"
	"time"

	"github.com/gin-contrib/sse"
)

// Control frame names sent alongside event kinds.
const (
	FrameJoined = "joined"
	FramePing   = "ping"
)

// Joined is the data of the frame sent when a channel opens.
type Joined struct {
	ChannelID string `json:"channelId"`
	Identity  string `json:"identity"`
}

// WriteEvent encodes event as one server-sent-events frame.
func WriteEvent(w io.Writer, id string, event Event) error {
	return sse.Encode(w, sse.Event{
		Id:    id,
		Event: string(event.Kind),
		Data:  event.Payload,
	})
}

// WriteJoined encodes the frame that confirms a channel registration.
func WriteJoined(w io.Writer, channelID, identity string) error {
	return sse.Encode(w, sse.Event{
		Event: FrameJoined,
		Data:  Joined{ChannelID: channelID, Identity: identity},
	})
}

// WritePing encodes a keepalive carrying the server time.
func WritePing(w io.Writer, at time.Time) error {
	return sse.Encode(w, sse.Event{
		Event: FramePing,
		Data:  at.UTC().Format(time.RFC3339),
	})
}
