package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/domain"
	"github.com/yusufkecer/healthhub/internal/middleware"
	"github.com/yusufkecer/healthhub/internal/service"
)

type AccountService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error)
	Confirm(ctx context.Context, req domain.ConfirmRequest) error
	Login(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error)
	Me(ctx context.Context, accountID int64) (*domain.MeResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
}

type AuthHandler struct {
	accounts     AccountService
	auth         *middleware.Authenticator
	secureCookie bool
	log          *zap.Logger
}

func NewAuthHandler(accounts AccountService, auth *middleware.Authenticator, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, auth: auth, secureCookie: secureCookie, log: log}
}

// accountStatus maps account errors onto HTTP status codes.
func accountStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrMissingResetFields):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidCode):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotConfirmed):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func (h *AuthHandler) fail(w http.ResponseWriter, op string, err error) {
	status := accountStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error(op+" failed", zap.Error(err))
		writeError(w, status, "failed to "+op)
		return
	}
	writeError(w, status, err.Error())
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		h.fail(w, "create account", err)
		return
	}
	if resp.Token != "" && resp.ExpiresAt != nil {
		SetSessionCookie(w, resp.Token, *resp.ExpiresAt, h.secureCookie)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req domain.ConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.accounts.Confirm(r.Context(), req); err != nil {
		h.fail(w, "confirm email", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: service.MsgConfirmed})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	SetSessionCookie(w, resp.Token, resp.ExpiresAt, h.secureCookie)
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	if err := h.auth.Revoke(r.Context(), claims); err != nil {
		h.log.Error("failed to revoke token", zap.Int64("account_id", claims.AccountID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to logout")
		return
	}
	ClearSessionCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.accounts.Me(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		h.fail(w, "load account", err)
		return
	}
	writeJSON(w, http.StatusOK, me)
}

// ForgotPassword answers immediately and sends the code in the background,
// so the response does not reveal whether the address exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusOK, domain.MessageResponse{Message: service.MsgResetSent})
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := h.accounts.ForgotPassword(ctx, req.Email); err != nil {
			h.log.Warn("forgot-password failed", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: service.MsgResetSent})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), req); err != nil {
		h.fail(w, "reset password", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: service.MsgPasswordReset})
}

func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
