package chat

import (
	"context"
	"sync"
	"time"

	"github.com/yusufkecer/healthhub/internal/domain"
)

// Store persists conversations. Get returns nil, nil when the id is unknown.
type Store interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	Append(ctx context.Context, id string, msgs ...domain.ChatMessage) error
}

// MemoryStore keeps conversations for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*domain.Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]*domain.Conversation)}
}

func (s *MemoryStore) Create(_ context.Context, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID] = clone(conv)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, nil
	}
	return clone(conv), nil
}

func (s *MemoryStore) Append(_ context.Context, id string, msgs ...domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msgs...)
	conv.UpdatedAt = time.Now().UTC()
	return nil
}

func clone(c *domain.Conversation) *domain.Conversation {
	cp := *c
	cp.Messages = append([]domain.ChatMessage(nil), c.Messages...)
	return &cp
}
