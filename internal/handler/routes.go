package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/middleware"
)

// API bundles what the /api/v1 routes need.
type API struct {
	Accounts     AccountService
	Measurements MeasurementService
	Stats        StatsSearcher
	Chat         ChatService
	Auth         *middleware.Authenticator
	APIKey       string
	SecureCookie bool
	Log          *zap.Logger
}

// CodeAttemptsPerWindow caps confirm and reset submissions per client IP
// every 15 minutes.
const CodeAttemptsPerWindow = 10

// RegisterAPI mounts the JSON API under /api/v1 on r.
func RegisterAPI(r *mux.Router, a API) {
	authHandler := NewAuthHandler(a.Accounts, a.Auth, a.SecureCookie, a.Log)
	measurementHandler := NewMeasurementHandler(a.Measurements, a.Log)
	statsHandler := NewStatsHandler(a.Stats, a.Log)
	chatHandler := NewChatHandler(a.Chat, a.Log)

	loginRL := middleware.NewRateLimiter("login", 5, 15*time.Minute, a.Log)
	forgotPasswordRL := middleware.NewRateLimiter("forgot-password", 3, 60*time.Minute, a.Log)
	codeRL := middleware.NewRateLimiter("verify-code", CodeAttemptsPerWindow, 15*time.Minute, a.Log)

	r.HandleFunc("/api/v1/health", Health).Methods(http.MethodGet, http.MethodOptions)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.APIKeyMiddleware(a.APIKey))

	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/auth/confirm", codeRL.Middleware(http.HandlerFunc(authHandler.Confirm))).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/auth/login", loginRL.Middleware(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/auth/forgot-password", forgotPasswordRL.Middleware(http.HandlerFunc(authHandler.ForgotPassword))).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/auth/reset-password", codeRL.Middleware(http.HandlerFunc(authHandler.ResetPassword))).Methods(http.MethodPost, http.MethodOptions)

	open := api.NewRoute().Subrouter()
	open.Use(a.Auth.Optional)
	open.HandleFunc("/bmi/assess", measurementHandler.Assess).Methods(http.MethodPost, http.MethodOptions)
	open.HandleFunc("/stats/{country}", statsHandler.Search).Methods(http.MethodGet, http.MethodOptions)
	open.HandleFunc("/chat/messages", chatHandler.Send).Methods(http.MethodPost, http.MethodOptions)
	open.HandleFunc("/chat/conversations/{id}", chatHandler.Get).Methods(http.MethodGet, http.MethodOptions)

	protected := api.NewRoute().Subrouter()
	protected.Use(a.Auth.Require)
	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/bmi/history", measurementHandler.History).Methods(http.MethodGet, http.MethodOptions)
}
