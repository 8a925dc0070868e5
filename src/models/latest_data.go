package models

// -----------------------------------------------------------------------------
// Stream message pushed to websocket listeners
// -----------------------------------------------------------------------------

const (
	StreamInitial  = "INITIAL"
	StreamSnapshot = "SNAPSHOT"
	StreamEvents   = "EVENTS"
	StreamError    = "ERROR"
)

// Subscription topics.
const (
	TopicSnapshot = "snapshot"
	TopicEvents   = "events"
)

type MStreamMessage struct {
	Type      string               `json:"type"`
	Timestamp int64                `json:"timestamp"` // unix ms of the snapshot instant or emission
	Snapshot  *MConfluenceSnapshot `json:"snapshot,omitempty"`
	Events    []MConfluenceEvent   `json:"events,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// Topic is the subscription a message is delivered under.
func (m *MStreamMessage) Topic() string {
	if m.Type == StreamEvents {
		return TopicEvents
	}
	return TopicSnapshot
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

// MSubscribeCommand is sent by websocket clients. "subscribe" narrows the
// pushed topics; "snapshot" asks for a one-off snapshot at At.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Topics  []string `json:"topics"`
	At      string   `json:"at"`
}
