package store

import "context"

// Driver is implemented by a concrete storage backend. Store wraps a
// Driver with its own write-serialization guarantee; a Driver
// implementation itself need not be concurrency-safe for writes.
type Driver interface {
	// CreateOrTouch creates the conversation if absent (defaulting to
	// simple mode) or touches its updated_at if present. Idempotent.
	CreateOrTouch(ctx context.Context, conversationID, model string) (*Conversation, error)

	// GetConversation returns the conversation or an apperrors not_found
	// error if it does not exist.
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)

	// AppendMessage appends a message, incrementing message_count and
	// bumping updated_at; it derives the conversation's title from the
	// first user message if one is not already set.
	AppendMessage(ctx context.Context, conversationID string, msg NewMessage) (*Message, error)

	// ListConversations returns conversations ordered by updated_at DESC.
	ListConversations(ctx context.Context, limit, offset int) ([]*ConversationSummary, error)

	// LoadMessages returns the full ordered message history.
	LoadMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// UpdateMode updates the conversation's current mode.
	UpdateMode(ctx context.Context, conversationID string, mode Mode) error

	// ReadDebateState returns the raw JSON blob stored under the
	// conversation's metadata, or "" if none has been written yet.
	ReadDebateState(ctx context.Context, conversationID string) (string, error)

	// WriteDebateState overwrites the debate-state JSON blob.
	WriteDebateState(ctx context.Context, conversationID string, debateStateJSON string) error

	// Delete removes a conversation and cascades to its messages.
	Delete(ctx context.Context, conversationID string) error

	// DeleteAll removes every conversation and returns the count deleted.
	DeleteAll(ctx context.Context) (int, error)

	// Close releases the underlying connection.
	Close() error
}
