package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "claims"

const (
	SessionCookie = "healthhub_session"
	SessionTTL    = 30 * 24 * time.Hour
)

var ErrRevokedToken = errors.New("token has been revoked")

// Claims identify the signed-in account. The ID (jti) lets a single token be
// revoked on logout.
type Claims struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Revoker remembers token ids that must no longer be accepted.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func GenerateToken(accountID int64, email, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(tokenStr, secret string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.AccountID == 0 || claims.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &claims, nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie
// set by the login endpoint and the pages.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if tok, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticator validates session tokens against the signing secret and the
// revocation list.
type Authenticator struct {
	secret  string
	revoker Revoker
	log     *zap.Logger
}

func NewAuthenticator(secret string, revoker Revoker, log *zap.Logger) *Authenticator {
	return &Authenticator{secret: secret, revoker: revoker, log: log}
}

func (a *Authenticator) Authenticate(r *http.Request) (*Claims, error) {
	tokenStr := TokenFromRequest(r)
	if tokenStr == "" {
		return nil, jwt.ErrTokenMalformed
	}
	claims, err := ParseToken(tokenStr, a.secret)
	if err != nil {
		return nil, err
	}
	revoked, err := a.revoker.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		a.log.Warn("revocation lookup failed", zap.Error(err))
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke blocks the token behind claims until it expires.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	until := time.Now().Add(SessionTTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return a.revoker.Revoke(ctx, claims.ID, until)
}

// Require rejects requests without a valid session.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.Authenticate(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Optional attaches the session when one is present and valid, and lets
// anonymous requests through.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := a.Authenticate(r); err == nil {
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// AccountID returns 0 for anonymous requests.
func AccountID(ctx context.Context) int64 {
	if c, ok := ClaimsFrom(ctx); ok {
		return c.AccountID
	}
	return 0
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
