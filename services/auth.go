package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/models"
)

// SessionLifetime is the fixed validity of an admin session.
const SessionLifetime = 24 * time.Hour

// UserStore is the persistence the gateway needs for administrators.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Add(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
}

// sessionClaims is the payload of the signed session cookie. The session must
// also exist server-side, so logout takes effect before the token expires.
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID uint `json:"uid"`
}

// AuthService checks admin credentials and manages sessions.
type AuthService struct {
	users    UserStore
	sessions *SessionStore
	secret   []byte
	lifetime time.Duration
	cost     int
	// dummyHash is compared against when the username is unknown so every
	// login attempt costs one bcrypt comparison.
	dummyHash []byte
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAuthService(users UserStore, sessions *SessionStore, secret string) (*AuthService, error) {
	if secret == "" {
		return nil, errs.NewConfigMissingError([]string{"SESSION_SECRET"})
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		secret:    []byte(secret),
		lifetime:  SessionLifetime,
		cost:      bcrypt.DefaultCost,
		dummyHash: dummy,
		logger:    log.With().Str("service", "auth").Logger(),
		now:       time.Now,
	}, nil
}

// EnsureAdmin creates the administrator if missing, or rotates the stored hash
// when the configured password no longer matches it.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errs.NewConfigMissingError([]string{"ADMIN_USERNAME", "ADMIN_PASSWORD"})
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errs.IsNotFound(err) {
		return fmt.Errorf("look up admin %q: %w", username, err)
	}

	if user != nil && checkPassword(password, user.PasswordHash) {
		return nil
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	if user == nil {
		if err := s.users.Add(ctx, &models.User{Username: username, PasswordHash: hash}); err != nil {
			return fmt.Errorf("create admin %q: %w", username, err)
		}
		s.logger.Info().Str("username", username).Msg("admin user created")
		return nil
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("rotate admin password: %w", err)
	}
	s.logger.Info().Str("username", username).Msg("admin password rotated")
	return nil
}

// Login verifies the credentials and opens a session. It returns the signed
// token to place in the session cookie.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", Session{}, errs.NewMissingRequiredFieldError("username")
	}
	if password == "" {
		return "", Session{}, errs.NewMissingRequiredFieldError("password")
	}
	logCtx := s.logger.With().Str("username", username).Logger()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errs.IsNotFound(err) {
			return "", Session{}, errs.NewDatabaseError("find", "user", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		logCtx.Warn().Msg("login failed: unknown user")
		return "", Session{}, errs.NewInvalidCredentialsError()
	}

	if !checkPassword(password, user.PasswordHash) {
		logCtx.Warn().Msg("login failed: wrong password")
		return "", Session{}, errs.NewInvalidCredentialsError()
	}

	session := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: s.now().Add(s.lifetime),
	}
	token, err := s.sign(session)
	if err != nil {
		return "", Session{}, errs.NewInternalErrorWithCause("sign session", err)
	}
	s.sessions.Put(session)

	logCtx.Info().Uint("userID", user.ID).Msg("admin logged in")
	return token, session, nil
}

// Authenticate resolves a session token into the live session it names.
func (s *AuthService) Authenticate(token string) (Session, error) {
	if token == "" {
		return Session{}, errs.NewMissingSessionError()
	}

	claims, err := s.parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, errs.NewSessionExpiredError()
		}
		return Session{}, errs.NewInvalidSessionError()
	}

	session, ok := s.sessions.Get(claims.ID, s.now())
	if !ok || session.UserID != claims.UserID {
		return Session{}, errs.NewInvalidSessionError()
	}
	return session, nil
}

// Logout ends the session named by token. Unknown or invalid tokens are ignored.
func (s *AuthService) Logout(token string) {
	if token == "" {
		return
	}
	claims, err := s.parse(token)
	if err != nil {
		return
	}
	s.sessions.Delete(claims.ID)
	s.logger.Info().Uint("userID", claims.UserID).Msg("admin logged out")
}

// PurgeExpired drops expired sessions from memory.
func (s *AuthService) PurgeExpired() int {
	return s.sessions.Purge(s.now())
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (s *AuthService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.PurgeExpired(); n > 0 {
				s.logger.Debug().Int("count", n).Msg("purged expired sessions")
			}
		}
	}
}

func (s *AuthService) sign(session Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   session.Username,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		UserID: session.UserID,
	})
	return token.SignedString(s.secret)
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errs.NewInvalidSessionError()
	}
	return claims, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(hash), nil
}

// checkPassword verifies the password against the stored bcrypt hash.
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
