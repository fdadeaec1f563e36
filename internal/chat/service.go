// Package chat runs the virtual health-check conversation: it keeps the
// transcript, forwards user text to the generative model and renders the
// model's markdown for display.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/domain"
)

const MaxMessageLength = 2000

var (
	ErrEmptyMessage         = errors.New("message is required")
	ErrMessageTooLong       = fmt.Errorf("message must be at most %d characters", MaxMessageLength)
	ErrConversationNotFound = errors.New("conversation not found")
)

type Service struct {
	gen   Generator
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(gen Generator, store Store, log *zap.Logger) *Service {
	return &Service{gen: gen, store: store, log: log, now: time.Now}
}

// Start opens a conversation seeded with the assistant greeting.
func (s *Service) Start(ctx context.Context, accountID int64) (*domain.Conversation, error) {
	now := s.now().UTC()
	conv := &domain.Conversation{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleBot, Text: GreetingMessage, SentAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return withHTML(conv), nil
}

// Get loads a conversation visible to accountID. Conversations owned by an
// account are hidden from everyone else; anonymous ones are open to whoever
// holds the id.
func (s *Service) Get(ctx context.Context, id string, accountID int64) (*domain.Conversation, error) {
	conv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv == nil || (conv.AccountID != 0 && conv.AccountID != accountID) {
		return nil, ErrConversationNotFound
	}
	return withHTML(conv), nil
}

// Send appends the user's message and the assistant's reply. An unknown or
// empty conversation id starts a new conversation.
func (s *Service) Send(ctx context.Context, convID string, accountID int64, text string) (*domain.Conversation, domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ChatMessage{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, domain.ChatMessage{}, ErrMessageTooLong
	}

	var conv *domain.Conversation
	var err error
	if convID != "" {
		conv, err = s.Get(ctx, convID, accountID)
		if err != nil && !errors.Is(err, ErrConversationNotFound) {
			return nil, domain.ChatMessage{}, err
		}
	}
	if conv == nil {
		if conv, err = s.Start(ctx, accountID); err != nil {
			return nil, domain.ChatMessage{}, err
		}
	}

	userMsg := domain.ChatMessage{Role: domain.RoleUser, Text: text, SentAt: s.now().UTC()}

	reply, err := s.gen.Generate(ctx, text)
	if err != nil {
		s.log.Error("failed to generate reply", zap.String("conversation", conv.ID), zap.Error(err))
		reply = ReplyTechnical
	}
	botMsg := domain.ChatMessage{Role: domain.RoleBot, Text: reply, SentAt: s.now().UTC()}

	if err := s.store.Append(ctx, conv.ID, userMsg, botMsg); err != nil {
		return nil, domain.ChatMessage{}, fmt.Errorf("failed to save messages: %w", err)
	}

	conv.Messages = append(conv.Messages, userMsg, botMsg)
	conv.UpdatedAt = botMsg.SentAt
	withHTML(conv)
	return conv, conv.Messages[len(conv.Messages)-1], nil
}

func withHTML(conv *domain.Conversation) *domain.Conversation {
	for i := range conv.Messages {
		conv.Messages[i].HTML = FormatReply(conv.Messages[i].Text)
	}
	return conv
}
