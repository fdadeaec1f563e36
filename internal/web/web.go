// Package web renders the site's HTML pages. Pages share the services used
// by the JSON API and keep the session in the same cookie.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/handler"
	"github.com/yusufkecer/healthhub/internal/middleware"
	"github.com/yusufkecer/healthhub/internal/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

const chatCookie = "healthhub_chat"

var funcs = template.FuncMap{
	"formatNumber":     stats.FormatNumber,
	"formatPercentage": stats.FormatPercentage,
	// Chat HTML is produced by chat.FormatReply, which escapes its input.
	"safe": func(s string) template.HTML { return template.HTML(s) },
	"covid": func(r *stats.Result) []stats.HealthStat {
		return r.ByType(stats.TypeCOVID)
	},
	"notifiable": func(r *stats.Result) []stats.HealthStat {
		return r.ByType(stats.TypeNotifiable)
	},
}

type Deps struct {
	Accounts     handler.AccountService
	Measurements handler.MeasurementService
	Stats        handler.StatsSearcher
	Chat         handler.ChatService
	Auth         *middleware.Authenticator
	SecureCookie bool
	Log          *zap.Logger
}

type Pages struct {
	deps  Deps
	pages map[string]*template.Template
}

func New(d Deps) (*Pages, error) {
	p := &Pages{deps: d, pages: make(map[string]*template.Template)}
	for _, name := range []string{"home", "symp", "stats", "assess", "auth"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		p.pages[name] = t
	}
	return p, nil
}

// Register mounts the pages on r. Every page sees the session when the
// visitor has one.
func (p *Pages) Register(r *mux.Router) {
	loginRL := middleware.NewRateLimiter("web-login", 5, 15*time.Minute, p.deps.Log)
	codeRL := middleware.NewRateLimiter("web-verify-code", handler.CodeAttemptsPerWindow, 15*time.Minute, p.deps.Log)

	s := r.NewRoute().Subrouter()
	s.Use(p.deps.Auth.Optional)

	s.HandleFunc("/", p.HomePage).Methods(http.MethodGet)
	s.HandleFunc("/symp-check", p.ChatPage).Methods(http.MethodGet)
	s.HandleFunc("/symp-check", p.ChatSend).Methods(http.MethodPost)
	s.HandleFunc("/symp-check/new", p.ChatReset).Methods(http.MethodPost)
	s.HandleFunc("/stats", p.StatsPage).Methods(http.MethodGet)
	s.HandleFunc("/assess-center", p.AssessPage).Methods(http.MethodGet)
	s.HandleFunc("/assess-center", p.AssessSubmit).Methods(http.MethodPost)
	s.HandleFunc("/auth", p.AuthPage).Methods(http.MethodGet)
	s.Handle("/auth/login", loginRL.Middleware(http.HandlerFunc(p.LoginSubmit))).Methods(http.MethodPost)
	s.HandleFunc("/auth/register", p.RegisterSubmit).Methods(http.MethodPost)
	s.Handle("/auth/confirm", codeRL.Middleware(http.HandlerFunc(p.ConfirmSubmit))).Methods(http.MethodPost)
	s.HandleFunc("/auth/logout", p.LogoutSubmit).Methods(http.MethodPost)
}

// base is the data every page layout needs.
type base struct {
	Title    string
	Active   string
	SignedIn bool
	Email    string
	Error    string
	Notice   string
}

func (p *Pages) base(r *http.Request, title, active string) base {
	b := base{Title: title, Active: active}
	if c, ok := middleware.ClaimsFrom(r.Context()); ok {
		b.SignedIn = true
		b.Email = c.Email
	}
	return b
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		p.deps.Log.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (p *Pages) HomePage(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusOK, "home", p.base(r, "Home", "home"))
}

// userMessage returns err's text for expected failures and a generic line
// for everything else.
func (p *Pages) userMessage(err error, expected ...error) string {
	for _, e := range expected {
		if errors.Is(err, e) {
			return err.Error()
		}
	}
	p.deps.Log.Error("page request failed", zap.Error(err))
	return "Something went wrong. Please try again."
}
