// Package store defines the durable conversation/message data model and
// the storage engine that persists it. The only backend is SQLite — the
// spec calls for a single-writer embedded relational store, which rules
// out a replicated, multi-writer backend.
package store

import "time"

// Mode identifies which of the two conversation modes is active.
type Mode string

const (
	ModeSimple Mode = "simple"
	ModeDebate Mode = "debate"
)

// Role is the speaker of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageType discriminates debate-round artifacts (and the plain turns)
// stored alongside a conversation's message history.
type MessageType string

const (
	MessageTypeUser                MessageType = "user"
	MessageTypeFinalAnswer         MessageType = "final_answer"
	MessageTypeModeratorInit       MessageType = "moderator_init"
	MessageTypeModeratorSynthesize MessageType = "moderator_synthesize"
	MessageTypeExpertAnswer        MessageType = "expert_answer"
	MessageTypeCriticReview        MessageType = "critic_review"
	MessageTypeSystemNote          MessageType = "system_note"
)

// IsDebateArtifact reports whether a message of this type carries a
// 1-based iteration number, per the invariant in the data model.
func (t MessageType) IsDebateArtifact() bool {
	switch t {
	case MessageTypeExpertAnswer, MessageTypeCriticReview, MessageTypeModeratorSynthesize:
		return true
	default:
		return false
	}
}

// Conversation is the durable record for one client-identified dialogue.
type Conversation struct {
	ID           string
	Title        string
	Mode         Mode
	Model        string
	MessageCount int
	MetadataJSON string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConversationSummary is the lightweight listing projection.
type ConversationSummary struct {
	ID           string
	Title        string
	Mode         Mode
	MessageCount int
	UpdatedAt    time.Time
}

// Message is one persisted turn or debate artifact.
type Message struct {
	Seq            int64
	ConversationID string
	Role           Role
	Content        string
	Timestamp      time.Time
	Model          string
	MessageType    MessageType
	Iteration      int // 0 means "not set"; valid range is 1..N otherwise.
	MetadataJSON   string
}

// NewMessage is the input shape for appending a message.
type NewMessage struct {
	Role         Role
	Content      string
	Model        string
	MessageType  MessageType
	Iteration    int
	MetadataJSON string
}
