package ports

import "context"

// MessageType distinguishes stream messages from private ones.
type MessageType string

const (
	MessageStream  MessageType = "stream"
	MessagePrivate MessageType = "private"
)

// ChatEvent is one inbound message pushed by the chat platform. Delivery
// is at-least-once; consumers deduplicate by ID.
type ChatEvent struct {
	ID      string      // Platform-assigned event ID, used for dedup
	Sender  string      // Sender identity (e.g. email address)
	Type    MessageType // stream or private
	Topic   string      // Topic for stream messages, empty for private
	Stream  string      // Recipient stream for stream messages
	Content string      // Plain message text
}

// Replier sends outbound text back through the chat platform. Replies
// mirror the inbound event: stream messages answer into the same stream
// and topic, private messages answer the sender directly.
type Replier interface {
	SendToTopic(ctx context.Context, stream, topic, text string) error
	SendPrivate(ctx context.Context, recipient, text string) error
}
