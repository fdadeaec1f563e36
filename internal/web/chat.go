package web

import (
	"net/http"

	"github.com/yusufkecer/healthhub/internal/chat"
	"github.com/yusufkecer/healthhub/internal/domain"
	"github.com/yusufkecer/healthhub/internal/middleware"
)

type chatPage struct {
	base
	ConversationID string
	Messages       []domain.ChatMessage
	MaxLength      int
}

func greeting() []domain.ChatMessage {
	return []domain.ChatMessage{{Role: domain.RoleBot, Text: chat.GreetingMessage, HTML: chat.FormatReply(chat.GreetingMessage)}}
}

func (p *Pages) loadChat(r *http.Request) chatPage {
	data := chatPage{base: p.base(r, "AI Health Check", "symp"), Messages: greeting(), MaxLength: chat.MaxMessageLength}
	c, err := r.Cookie(chatCookie)
	if err != nil || c.Value == "" {
		return data
	}
	conv, err := p.deps.Chat.Get(r.Context(), c.Value, middleware.AccountID(r.Context()))
	if err != nil {
		return data
	}
	data.ConversationID = conv.ID
	data.Messages = conv.Messages
	return data
}

func (p *Pages) ChatPage(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusOK, "symp", p.loadChat(r))
}

func (p *Pages) ChatSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	var convID string
	if c, err := r.Cookie(chatCookie); err == nil {
		convID = c.Value
	}

	conv, _, err := p.deps.Chat.Send(r.Context(), convID, middleware.AccountID(r.Context()), r.PostFormValue("message"))
	if err != nil {
		data := p.loadChat(r)
		data.Error = p.userMessage(err, chat.ErrEmptyMessage, chat.ErrMessageTooLong)
		p.render(w, http.StatusBadRequest, "symp", data)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     chatCookie,
		Value:    conv.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.deps.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/symp-check", http.StatusSeeOther)
}

func (p *Pages) ChatReset(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: chatCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/symp-check", http.StatusSeeOther)
}
