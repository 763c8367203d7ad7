package realtime

import "encoding/json"

// Server-to-client event names. Clients sort messages by their persisted
// timestamp, not by arrival order of these events.
const (
	EventConnected        = "connected"
	EventJoined           = "joined"
	EventLeft             = "left"
	EventError            = "error"
	EventMessageNew       = "message:new"
	EventMessageDelivered = "message:delivered"
	EventMessageRead      = "message:read"
	EventUserOnline       = "user:online"
	EventUserOffline      = "user:offline"
	EventTypingStart      = "typing:start"
	EventTypingStop       = "typing:stop"
)

// Envelope is the wire frame for every server-to-client event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Encode marshals an event frame. A payload that cannot marshal is a
// programming error; the frame degrades to the bare event name so the
// stream is never broken mid-session.
func Encode(event string, data any) []byte {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		payload, _ = json.Marshal(Envelope{Event: event})
	}
	return payload
}
