package store

import (
	"context"
	"sync"
)

// Store is the process-wide storage engine. It wraps a Driver with a write
// mutex so that writes are serialized even if the Driver's own connection
// pool would otherwise allow concurrent writers; reads pass straight
// through since SQLite (via modernc.org/sqlite) allows concurrent readers.
type Store struct {
	driver Driver
	mu     sync.Mutex
}

// New wraps driver in a Store.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) CreateOrTouch(ctx context.Context, conversationID, model string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.CreateOrTouch(ctx, conversationID, model)
}

func (s *Store) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	return s.driver.GetConversation(ctx, conversationID)
}

func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg NewMessage) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.AppendMessage(ctx, conversationID, msg)
}

func (s *Store) ListConversations(ctx context.Context, limit, offset int) ([]*ConversationSummary, error) {
	return s.driver.ListConversations(ctx, limit, offset)
}

func (s *Store) LoadMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	return s.driver.LoadMessages(ctx, conversationID)
}

func (s *Store) UpdateMode(ctx context.Context, conversationID string, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.UpdateMode(ctx, conversationID, mode)
}

func (s *Store) ReadDebateState(ctx context.Context, conversationID string) (string, error) {
	return s.driver.ReadDebateState(ctx, conversationID)
}

func (s *Store) WriteDebateState(ctx context.Context, conversationID string, debateStateJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.WriteDebateState(ctx, conversationID, debateStateJSON)
}

func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Delete(ctx, conversationID)
}

func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.DeleteAll(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}
