package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/bmi"
	"github.com/yusufkecer/healthhub/internal/cache"
	"github.com/yusufkecer/healthhub/internal/chat"
	"github.com/yusufkecer/healthhub/internal/domain"
	"github.com/yusufkecer/healthhub/internal/middleware"
	"github.com/yusufkecer/healthhub/internal/service"
	"github.com/yusufkecer/healthhub/internal/stats"
	"github.com/yusufkecer/healthhub/internal/store"
)

const testSecret = "handler-secret"

type fakeAccounts struct {
	registerErr error
	loginErr    error
	forgot      chan string
}

func (f *fakeAccounts) Register(_ context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.RegisterResponse{AccountID: 1, Message: service.MsgConfirmEmail}, nil
}

func (f *fakeAccounts) Confirm(_ context.Context, req domain.ConfirmRequest) error {
	if req.Code != "123456" {
		return service.ErrInvalidCode
	}
	return nil
}

func (f *fakeAccounts) Login(_ context.Context, req domain.TokenRequest) (*domain.TokenResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	tok, err := middleware.GenerateToken(1, req.Email, testSecret)
	if err != nil {
		return nil, err
	}
	return &domain.TokenResponse{Token: tok, ExpiresAt: time.Now().Add(middleware.SessionTTL)}, nil
}

func (f *fakeAccounts) Me(_ context.Context, id int64) (*domain.MeResponse, error) {
	return &domain.MeResponse{Account: domain.Account{ID: id, Email: "ada@example.com"}}, nil
}

func (f *fakeAccounts) ForgotPassword(_ context.Context, email string) error {
	if f.forgot != nil {
		f.forgot <- email
	}
	return nil
}

func (f *fakeAccounts) ResetPassword(_ context.Context, req domain.ResetPasswordRequest) error {
	if len(req.Password) < service.MinPasswordLength {
		return service.ErrWeakPassword
	}
	return nil
}

type fakeMeasurements struct {
	lastAccount int64
}

func (f *fakeMeasurements) Assess(_ context.Context, accountID int64, req domain.AssessRequest) (*service.AssessResult, error) {
	f.lastAccount = accountID
	a, err := bmi.Assess(req.Weight, req.Height, req.Gender)
	if err != nil {
		return nil, err
	}
	return &service.AssessResult{Assessment: a}, nil
}

func (f *fakeMeasurements) History(_ context.Context, accountID int64, limit int) ([]domain.Measurement, error) {
	return []domain.Measurement{{ID: 1, AccountID: accountID, BMI: float64(limit)}}, nil
}

type fakeStats struct {
	err error
}

func (f *fakeStats) Search(_ context.Context, q string) (*stats.Result, error) {
	if strings.TrimSpace(q) == "" {
		return nil, stats.ErrEmptyQuery
	}
	logs := []stats.LogEntry{{Note: "Starting REAL data search"}}
	if f.err != nil {
		return &stats.Result{Query: q, Logs: logs}, f.err
	}
	return &stats.Result{Query: q, IsReal: true, Country: stats.CountryData{Country: "France"}, Logs: logs}, nil
}

type harness struct {
	router   *mux.Router
	accounts *fakeAccounts
	measure  *fakeMeasurements
	stats    *fakeStats
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	c := cache.New(time.Minute, time.Minute)
	t.Cleanup(c.Stop)

	h := &harness{
		router:   mux.NewRouter(),
		accounts: &fakeAccounts{},
		measure:  &fakeMeasurements{},
		stats:    &fakeStats{},
	}
	gen := chatReply("Stay hydrated.")
	RegisterAPI(h.router, API{
		Accounts:     h.accounts,
		Measurements: h.measure,
		Stats:        h.stats,
		Chat:         chat.NewService(gen, chat.NewMemoryStore(), zap.NewNop()),
		Auth:         middleware.NewAuthenticator(testSecret, store.NewMemoryRevocations(c), zap.NewNop()),
		Log:          zap.NewNop(),
	})
	return h
}

type chatReply string

func (c chatReply) Generate(context.Context, string) (string, error) { return string(c), nil }

func (h *harness) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func login(t *testing.T, h *harness) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", domain.TokenRequest{Email: "ada@example.com", Password: "secret1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[domain.TokenResponse](t, rec).Token
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegisterStatusCodes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/register", domain.RegisterRequest{Email: "ada@example.com", Password: "secret1"}, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, service.MsgConfirmEmail, decode[domain.RegisterResponse](t, rec).Message)

	h.accounts.registerErr = service.ErrEmailTaken
	rec = h.do(t, http.MethodPost, "/api/v1/auth/register", domain.RegisterRequest{}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	h.accounts.registerErr = service.ErrWeakPassword
	rec = h.do(t, http.MethodPost, "/api/v1/auth/register", domain.RegisterRequest{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirm(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/v1/auth/confirm", domain.ConfirmRequest{Email: "a@b.co", Code: "000000"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/auth/confirm", domain.ConfirmRequest{Email: "a@b.co", Code: "123456"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginSetsCookieAndLogoutRevokes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", domain.TokenRequest{Email: "ada@example.com", Password: "secret1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[domain.TokenResponse](t, rec).Token

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec = h.do(t, http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginErrors(t *testing.T) {
	h := newHarness(t)

	h.accounts.loginErr = service.ErrNotConfirmed
	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", domain.TokenRequest{}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"email not confirmed"}`, rec.Body.String())

	h.accounts.loginErr = service.ErrInvalidCredentials
	rec = h.do(t, http.MethodPost, "/api/v1/auth/login", domain.TokenRequest{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t)
	h.accounts.loginErr = service.ErrInvalidCredentials

	for i := 0; i < 5; i++ {
		rec := h.do(t, http.MethodPost, "/api/v1/auth/login", domain.TokenRequest{}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", domain.TokenRequest{}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCodeEndpointsRateLimited(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < CodeAttemptsPerWindow; i++ {
		rec := h.do(t, http.MethodPost, "/api/v1/auth/confirm", domain.ConfirmRequest{Email: "a@b.co", Code: fmt.Sprintf("%06d", i)}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// Confirm and reset share one budget per client.
	rec := h.do(t, http.MethodPost, "/api/v1/auth/confirm", domain.ConfirmRequest{Email: "a@b.co", Code: "999999"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = h.do(t, http.MethodPost, "/api/v1/auth/reset-password", domain.ResetPasswordRequest{Email: "a@b.co", Token: "1", Password: "longer1"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestTooManyCodeAttemptsStatus(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, accountStatus(service.ErrTooManyAttempts))
}

func TestForgotPasswordRunsInBackground(t *testing.T) {
	h := newHarness(t)
	h.accounts.forgot = make(chan string, 1)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/forgot-password", domain.ForgotPasswordRequest{Email: "ada@example.com"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case got := <-h.accounts.forgot:
		assert.Equal(t, "ada@example.com", got)
	case <-time.After(time.Second):
		t.Fatal("forgot-password was not dispatched")
	}
}

func TestResetPassword(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/v1/auth/reset-password", domain.ResetPasswordRequest{Email: "a@b.co", Token: "1", Password: "1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/auth/reset-password", domain.ResetPasswordRequest{Email: "a@b.co", Token: "1", Password: "longer1"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssess(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/bmi/assess", domain.AssessRequest{Weight: "70", Height: "175", Gender: "male"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[service.AssessResult](t, rec)
	assert.Equal(t, 22.9, res.Assessment.BMI)
	assert.Equal(t, int64(0), h.measure.lastAccount)

	rec = h.do(t, http.MethodPost, "/api/v1/bmi/assess", domain.AssessRequest{Weight: "70", Height: "175", Gender: "male"}, login(t, h))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), h.measure.lastAccount)

	rec = h.do(t, http.MethodPost, "/api/v1/bmi/assess", domain.AssessRequest{Weight: "abc", Height: "175", Gender: "male"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Please enter valid numbers for weight and height."}`, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/v1/bmi/assess", map[string]any{"weight": 70, "height": 175, "gender": "male"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 22.9, decode[service.AssessResult](t, rec).Assessment.BMI)
}

func TestHistory(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/bmi/history", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := login(t, h)
	rec = h.do(t, http.MethodGet, "/api/v1/bmi/history?limit=20", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]domain.Measurement](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 20.0, list[0].BMI)

	rec = h.do(t, http.MethodGet, "/api/v1/bmi/history?limit=x", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/stats/France", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "France", decode[stats.Result](t, rec).Country.Country)

	cases := []struct {
		err  error
		want int
	}{
		{stats.ErrCountryNotFound, http.StatusNotFound},
		{stats.ErrTimeout, http.StatusGatewayTimeout},
		{stats.ErrNetwork, http.StatusBadGateway},
	}
	for _, tc := range cases {
		h.stats.err = tc.err
		rec := h.do(t, http.MethodGet, "/api/v1/stats/Atlantis", nil, "")
		assert.Equal(t, tc.want, rec.Code)
		body := decode[statsError](t, rec)
		assert.Equal(t, stats.FailureMessage("Atlantis"), body.Error)
		assert.Len(t, body.Logs, 1)
	}
}

func TestChat(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/chat/messages", domain.ChatRequest{Message: "  "}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/chat/messages", domain.ChatRequest{Message: "I have a cold"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[domain.ChatResponse](t, rec)
	assert.Equal(t, "Stay hydrated.", resp.Reply.Text)
	assert.Equal(t, "<p>Stay hydrated.</p>", resp.Reply.HTML)

	rec = h.do(t, http.MethodGet, "/api/v1/chat/conversations/"+resp.ConversationID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	conv := decode[domain.Conversation](t, rec)
	assert.Len(t, conv.Messages, 3)

	rec = h.do(t, http.MethodGet, "/api/v1/chat/conversations/unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyGuardsAPI(t *testing.T) {
	c := cache.New(time.Minute, time.Minute)
	t.Cleanup(c.Stop)
	r := mux.NewRouter()
	RegisterAPI(r, API{
		Accounts:     &fakeAccounts{},
		Measurements: &fakeMeasurements{},
		Stats:        &fakeStats{},
		Chat:         chat.NewService(chatReply("ok"), chat.NewMemoryStore(), zap.NewNop()),
		Auth:         middleware.NewAuthenticator(testSecret, store.NewMemoryRevocations(c), zap.NewNop()),
		APIKey:       "k",
		Log:          zap.NewNop(),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/France", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
