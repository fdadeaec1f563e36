package domain

import "time"

type ChatRole string

const (
	RoleUser ChatRole = "user"
	RoleBot  ChatRole = "bot"
)

type ChatMessage struct {
	Role   ChatRole  `json:"role" bson:"role"`
	Text   string    `json:"text" bson:"text"`
	HTML   string    `json:"html,omitempty" bson:"-"`
	SentAt time.Time `json:"sent_at" bson:"sent_at"`
}

type Conversation struct {
	ID        string        `json:"id" bson:"_id"`
	AccountID int64         `json:"user_id,omitempty" bson:"account_id,omitempty"`
	Messages  []ChatMessage `json:"messages" bson:"messages"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type ChatResponse struct {
	ConversationID string      `json:"conversation_id"`
	Reply          ChatMessage `json:"reply"`
}
