// Package server assembles the HTTP application from configuration: stores,
// services, the JSON API and the pages.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/cache"
	"github.com/yusufkecer/healthhub/internal/chat"
	"github.com/yusufkecer/healthhub/internal/config"
	"github.com/yusufkecer/healthhub/internal/db"
	"github.com/yusufkecer/healthhub/internal/handler"
	"github.com/yusufkecer/healthhub/internal/middleware"
	"github.com/yusufkecer/healthhub/internal/repository"
	"github.com/yusufkecer/healthhub/internal/service"
	"github.com/yusufkecer/healthhub/internal/stats"
	"github.com/yusufkecer/healthhub/internal/store"
	"github.com/yusufkecer/healthhub/internal/web"
)

const maxBodyBytes = 1 << 20

// App is a fully wired server. Close releases every connection it opened.
type App struct {
	Handler http.Handler

	db    *sql.DB
	rdb   *redis.Client
	mongo *mongo.Client
	mem   *cache.Cache
	log   *zap.Logger
}

// NewStatsService builds the statistics aggregator over the configured
// sources. c decides where results are cached.
func NewStatsService(cfg *config.Config, c stats.Cache, log *zap.Logger) *stats.Service {
	client := stats.NewClient(&http.Client{}, stats.Sources{
		DiseaseSh:   cfg.DiseaseShURL,
		WorldBank:   cfg.WorldBankURL,
		OWID:        cfg.OWIDURL,
		CDC:         cfg.CDCURL,
		CDCAppToken: cfg.CDCAppToken,
	}, cfg.StatsTimeout, log)
	return stats.NewService(client, c, cfg.StatsCacheTTL, log)
}

// New connects MySQL (running pending migrations), plus Redis and MongoDB
// when they are configured, and builds the router on top.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	app := &App{log: log, mem: cache.New(cfg.StatsCacheTTL, time.Minute)}

	database, err := db.Connect(ctx, cfg.DSN(), log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.db = database
	if err := db.RunMigrations(ctx, database, log); err != nil {
		app.Close()
		return nil, err
	}

	var (
		statsCache stats.Cache
		revoker    middleware.Revoker
	)
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.rdb = rdb
		statsCache = store.NewRedisStatsCache(rdb)
		revoker = store.NewRedisRevocations(rdb)
		log.Info("using redis for stats cache and token revocation", zap.String("addr", cfg.RedisAddr))
	} else {
		statsCache = stats.NewMemoryCache(app.mem)
		revoker = store.NewMemoryRevocations(app.mem)
	}

	var conversations chat.Store
	if cfg.MongoURI != "" {
		client, err := store.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.mongo = client
		conversations = store.NewMongoConversationStore(client.Database(cfg.MongoDB))
		log.Info("using mongodb for chat transcripts", zap.String("db", cfg.MongoDB))
	} else {
		conversations = chat.NewMemoryStore()
	}

	// A nil Mailer turns confirmation off; keep it an untyped nil.
	var mailer service.Mailer
	if cfg.EmailEnabled() {
		mailer = service.NewEmailService(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		log.Warn("email delivery not configured, accounts are confirmed on registration")
	}

	accounts := service.NewAccountService(
		repository.NewAccountRepository(database),
		repository.NewVerificationRepository(database),
		mailer,
		cfg.JWTSecret,
		log,
	)
	measurements := service.NewMeasurementService(repository.NewMeasurementRepository(database), log)
	gemini := chat.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ChatTimeout, log)
	chats := chat.NewService(gemini, conversations, log)
	statsSvc := NewStatsService(cfg, statsCache, log)
	auth := middleware.NewAuthenticator(cfg.JWTSecret, revoker, log)

	api := handler.API{
		Accounts:     accounts,
		Measurements: measurements,
		Stats:        statsSvc,
		Chat:         chats,
		Auth:         auth,
		APIKey:       cfg.APIKey,
		SecureCookie: cfg.IsProduction(),
		Log:          log,
	}
	h, err := NewRouter(api, cfg.AllowedOrigins)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Handler = h
	return app, nil
}

// NewRouter mounts the API and the pages behind the shared middleware
// chain: request id, real ip, panic recovery, access log, CORS, security
// headers and a body size limit.
func NewRouter(api handler.API, allowedOrigins string) (http.Handler, error) {
	pages, err := web.New(web.Deps{
		Accounts:     api.Accounts,
		Measurements: api.Measurements,
		Stats:        api.Stats,
		Chat:         api.Chat,
		Auth:         api.Auth,
		SecureCookie: api.SecureCookie,
		Log:          api.Log,
	})
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(api.Log))
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next.ServeHTTP(w, r)
		})
	})

	handler.RegisterAPI(r, api)
	pages.Register(r)
	return r, nil
}

func (a *App) Close() {
	if a.mem != nil {
		a.mem.Stop()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn("failed to disconnect mongodb", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("failed to close database", zap.Error(err))
		}
	}
}
