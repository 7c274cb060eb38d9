package models

// Event types pushed over the realtime websocket
const (
	EventMessagesChanged = "messages_changed"
	EventMatchAssigned   = "match_assigned"
	EventError           = "error"
)

// Event is a realtime notification. It only tells the client what to refetch.
type Event struct {
	Type      string `json:"type"`
	MatchID   int64  `json:"matchId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}
