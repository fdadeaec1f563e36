package web

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/domain"
	"github.com/yusufkecer/healthhub/internal/handler"
	"github.com/yusufkecer/healthhub/internal/middleware"
	"github.com/yusufkecer/healthhub/internal/service"
)

type authPage struct {
	base
	Mode        string
	FormEmail   string
	DisplayName string
}

var expectedAuthErrors = []error{
	service.ErrMissingCredentials,
	service.ErrInvalidEmail,
	service.ErrWeakPassword,
	service.ErrEmailTaken,
	service.ErrInvalidCredentials,
	service.ErrNotConfirmed,
	service.ErrInvalidCode,
	service.ErrTooManyAttempts,
}

func (p *Pages) authData(r *http.Request, mode string) authPage {
	data := authPage{base: p.base(r, "Account", "auth"), Mode: mode}
	if data.SignedIn {
		if me, err := p.deps.Accounts.Me(r.Context(), middleware.AccountID(r.Context())); err == nil && me.Profile != nil {
			data.DisplayName = me.Profile.DisplayName
		}
	}
	return data
}

func (p *Pages) AuthPage(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusOK, "auth", p.authData(r, r.URL.Query().Get("mode")))
}

func (p *Pages) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	resp, err := p.deps.Accounts.Login(r.Context(), domain.TokenRequest{Email: email, Password: r.PostFormValue("password")})
	if err != nil {
		mode := ""
		if errors.Is(err, service.ErrNotConfirmed) {
			mode = "confirm"
		}
		data := p.authData(r, mode)
		data.FormEmail = email
		data.Error = p.userMessage(err, expectedAuthErrors...)
		p.render(w, http.StatusUnauthorized, "auth", data)
		return
	}
	handler.SetSessionCookie(w, resp.Token, resp.ExpiresAt, p.deps.SecureCookie)
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

func (p *Pages) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	resp, err := p.deps.Accounts.Register(r.Context(), domain.RegisterRequest{
		Email:       email,
		Password:    r.PostFormValue("password"),
		DisplayName: r.PostFormValue("display_name"),
	})
	if err != nil {
		data := p.authData(r, "register")
		data.FormEmail = email
		data.Error = p.userMessage(err, expectedAuthErrors...)
		p.render(w, http.StatusBadRequest, "auth", data)
		return
	}
	if resp.Token != "" && resp.ExpiresAt != nil {
		handler.SetSessionCookie(w, resp.Token, *resp.ExpiresAt, p.deps.SecureCookie)
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}
	data := p.authData(r, "confirm")
	data.FormEmail = email
	data.Notice = resp.Message
	p.render(w, http.StatusOK, "auth", data)
}

func (p *Pages) ConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	err := p.deps.Accounts.Confirm(r.Context(), domain.ConfirmRequest{Email: email, Code: r.PostFormValue("code")})
	if err != nil {
		data := p.authData(r, "confirm")
		data.FormEmail = email
		data.Error = p.userMessage(err, expectedAuthErrors...)
		p.render(w, http.StatusBadRequest, "auth", data)
		return
	}
	data := p.authData(r, "")
	data.FormEmail = email
	data.Notice = service.MsgConfirmed
	p.render(w, http.StatusOK, "auth", data)
}

func (p *Pages) LogoutSubmit(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		if err := p.deps.Auth.Revoke(r.Context(), claims); err != nil {
			p.deps.Log.Error("failed to revoke token", zap.Int64("account_id", claims.AccountID), zap.Error(err))
		}
	}
	handler.ClearSessionCookie(w, p.deps.SecureCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
