package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yusufkecer/healthhub/internal/cache"
	"github.com/yusufkecer/healthhub/internal/domain"
	"github.com/yusufkecer/healthhub/internal/middleware"
	"github.com/yusufkecer/healthhub/internal/repository"
)

const (
	MinPasswordLength = 6
	CodeTTL           = 15 * time.Minute

	// MaxCodeAttempts is how many wrong codes an address may submit before
	// it has to wait out CodeTTL or request a new code.
	MaxCodeAttempts = 5

	MsgConfirmEmail   = "Check your email to confirm your account."
	MsgAccountCreated = "Account created."
	MsgConfirmed      = "Email confirmed. You can now sign in."
	MsgResetSent      = "if the email exists, a code has been sent"
	MsgPasswordReset  = "password reset successful"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotConfirmed       = errors.New("email not confirmed")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrEmailDisabled      = errors.New("email delivery is not configured")
	ErrAccountNotFound    = errors.New("account not found")
	ErrMissingResetFields = errors.New("email, token and password are required")
	ErrTooManyAttempts    = errors.New("too many attempts, request a new code")
)

type AccountStore interface {
	Create(ctx context.Context, email, passwordHash string, confirmed bool, displayName string) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	MarkConfirmed(ctx context.Context, id int64) error
	GetProfile(ctx context.Context, accountID int64) (*domain.Profile, error)
}

type CodeStore interface {
	Create(ctx context.Context, accountID int64, purpose domain.TokenPurpose, token string, expiresAt time.Time) error
	GetValid(ctx context.Context, email string, purpose domain.TokenPurpose, token string) (*domain.VerificationToken, error)
	MarkUsed(ctx context.Context, id int64) error
	DeleteForAccount(ctx context.Context, accountID int64, purpose domain.TokenPurpose) error
}

type Mailer interface {
	SendConfirmation(ctx context.Context, to, code string) error
	SendPasswordReset(ctx context.Context, to, code string) error
}

// AccountService holds the email/password account rules shared by the JSON
// API and the pages.
type AccountService struct {
	accounts  AccountStore
	codes     CodeStore
	mailer    Mailer
	jwtSecret string
	log       *zap.Logger
	now       func() time.Time
	attempts  *cache.Cache
}

// NewAccountService builds the service. A nil mailer turns off email
// confirmation and password reset; new accounts are then confirmed at once.
func NewAccountService(accounts AccountStore, codes CodeStore, mailer Mailer, jwtSecret string, log *zap.Logger) *AccountService {
	return &AccountService{
		accounts:  accounts,
		codes:     codes,
		mailer:    mailer,
		jwtSecret: jwtSecret,
		log:       log,
		now:       time.Now,
		attempts:  cache.New(CodeTTL, 0),
	}
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && strings.Contains(email[at:], ".")
}

func (s *AccountService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = email
	}

	needsConfirm := s.mailer != nil
	id, err := s.accounts.Create(ctx, email, string(hash), !needsConfirm, displayName)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	if needsConfirm {
		if err := s.issueCode(ctx, id, email, domain.PurposeConfirmEmail); err != nil {
			s.log.Error("failed to send confirmation code", zap.Int64("account_id", id), zap.Error(err))
		}
		return &domain.RegisterResponse{AccountID: id, Message: MsgConfirmEmail}, nil
	}

	token, exp, err := s.token(id, email)
	if err != nil {
		return nil, err
	}
	return &domain.RegisterResponse{AccountID: id, Token: token, ExpiresAt: &exp, Message: MsgAccountCreated}, nil
}

func (s *AccountService) Confirm(ctx context.Context, req domain.ConfirmRequest) error {
	email := NormalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)
	if email == "" || code == "" {
		return ErrInvalidCode
	}

	tok, err := s.checkCode(ctx, email, domain.PurposeConfirmEmail, code)
	if err != nil {
		return err
	}
	if err := s.accounts.MarkConfirmed(ctx, tok.AccountID); err != nil {
		return err
	}
	return s.codes.MarkUsed(ctx, tok.ID)
}

func (s *AccountService) Login(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.Confirmed {
		return nil, ErrNotConfirmed
	}

	token, exp, err := s.token(account.ID, account.Email)
	if err != nil {
		return nil, err
	}
	return &domain.TokenResponse{Token: token, ExpiresAt: exp}, nil
}

func (s *AccountService) Me(ctx context.Context, accountID int64) (*domain.MeResponse, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	profile, err := s.accounts.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.MeResponse{Account: *account, Profile: profile}, nil
}

// ForgotPassword emails a reset code when the address belongs to an
// account. Unknown addresses succeed silently.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if s.mailer == nil {
		return ErrEmailDisabled
	}
	email = NormalizeEmail(email)
	if email == "" {
		return nil
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		return nil
	}
	return s.issueCode(ctx, account.ID, email, domain.PurposeResetPassword)
}

func (s *AccountService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Token == "" || req.Password == "" {
		return ErrMissingResetFields
	}
	if len(req.Password) < MinPasswordLength {
		return ErrWeakPassword
	}

	tok, err := s.checkCode(ctx, email, domain.PurposeResetPassword, strings.TrimSpace(req.Token))
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, tok.AccountID, string(hash)); err != nil {
		return err
	}
	return s.codes.MarkUsed(ctx, tok.ID)
}

func attemptsKey(email string, purpose domain.TokenPurpose) string {
	return "code-attempts:" + email + ":" + string(purpose)
}

// checkCode looks up a live code and counts wrong guesses per address.
// A match clears the counters of every purpose for that address.
func (s *AccountService) checkCode(ctx context.Context, email string, purpose domain.TokenPurpose, code string) (*domain.VerificationToken, error) {
	key := attemptsKey(email, purpose)
	var failed int
	if v, ok := s.attempts.Get(key); ok {
		failed = v.(int)
	}
	if failed >= MaxCodeAttempts {
		return nil, ErrTooManyAttempts
	}

	tok, err := s.codes.GetValid(ctx, email, purpose, code)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		s.attempts.Set(key, failed+1)
		if failed+1 == MaxCodeAttempts {
			s.log.Warn("code attempts exhausted", zap.String("purpose", string(purpose)), zap.String("email", email))
		}
		return nil, ErrInvalidCode
	}
	s.attempts.DeletePrefix("code-attempts:" + email + ":")
	return tok, nil
}

func (s *AccountService) issueCode(ctx context.Context, accountID int64, email string, purpose domain.TokenPurpose) error {
	if err := s.codes.DeleteForAccount(ctx, accountID, purpose); err != nil {
		s.log.Warn("failed to delete old codes", zap.Int64("account_id", accountID), zap.Error(err))
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	if err := s.codes.Create(ctx, accountID, purpose, code, s.now().UTC().Add(CodeTTL)); err != nil {
		return err
	}
	s.attempts.Delete(attemptsKey(email, purpose))

	if purpose == domain.PurposeConfirmEmail {
		err = s.mailer.SendConfirmation(ctx, email, code)
	} else {
		err = s.mailer.SendPasswordReset(ctx, email, code)
	}
	if err != nil {
		return err
	}
	s.log.Info("verification code sent", zap.String("purpose", string(purpose)), zap.Int64("account_id", accountID))
	return nil
}

func (s *AccountService) token(accountID int64, email string) (string, time.Time, error) {
	token, err := middleware.GenerateToken(accountID, email, s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, s.now().Add(middleware.SessionTTL), nil
}

func generateOTP() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	n := int(b[0])<<16 | int(b[1])<<8 | int(b[2])
	return fmt.Sprintf("%06d", n%1000000), nil
}
