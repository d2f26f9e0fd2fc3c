package user

import (
	"context"
	stdErrors "errors"

	"template-mailer/auth"
	"template-mailer/internal/errors"
	"template-mailer/redis"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OAuthProvider is the external identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, *auth.GoogleUser, error)
}

// SessionStore persists sessions and one-time OAuth states.
type SessionStore interface {
	Create(ctx context.Context, sess redis.Session) (string, error)
	Delete(ctx context.Context, sid string) error
	NewState(ctx context.Context) (string, error)
	ConsumeState(ctx context.Context, state string) error
}

// Service defines the interface for sign-in business logic
type Service interface {
	BeginLogin(ctx context.Context) (string, error)
	CompleteLogin(ctx context.Context, state, code string) (string, *Identity, error)
	Logout(ctx context.Context, sessionID string) error
}

// DefaultService implements Service
type DefaultService struct {
	provider OAuthProvider
	sessions SessionStore
	tokens   *auth.Tokens
	log      *zap.Logger
}

// NewService creates a new sign-in service
func NewService(provider OAuthProvider, sessions SessionStore, tokens *auth.Tokens, log *zap.Logger) Service {
	return &DefaultService{provider: provider, sessions: sessions, tokens: tokens, log: log}
}

// BeginLogin returns the consent page URL carrying a fresh state.
func (s *DefaultService) BeginLogin(ctx context.Context) (string, error) {
	state, err := s.sessions.NewState(ctx)
	if err != nil {
		return "", errors.Internal(err)
	}
	return s.provider.AuthCodeURL(state), nil
}

// CompleteLogin validates the state, exchanges the code and opens a
// session. It returns the signed session token.
func (s *DefaultService) CompleteLogin(ctx context.Context, state, code string) (string, *Identity, error) {
	if err := s.sessions.ConsumeState(ctx, state); err != nil {
		if stdErrors.Is(err, redis.ErrInvalidState) {
			return "", nil, errors.Unauthorized("Invalid login state", err)
		}
		return "", nil, errors.Internal(err)
	}
	if code == "" {
		return "", nil, errors.Unauthorized("Missing authorization code", nil)
	}

	token, profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return "", nil, errors.Unauthorized("Login failed", err)
	}

	ident := &Identity{Email: profile.Email, Name: profile.Name, AccessToken: token.AccessToken}
	sid, err := s.sessions.Create(ctx, redis.Session{
		Email:       ident.Email,
		Name:        ident.Name,
		AccessToken: ident.AccessToken,
	})
	if err != nil {
		return "", nil, errors.Internal(err)
	}

	jwtToken, err := s.tokens.GenerateJWT(sid, ident.Email)
	if err != nil {
		return "", nil, errors.Internal(err)
	}

	s.log.Info("user signed in", zap.String("email", ident.Email))
	return jwtToken, ident, nil
}

func (s *DefaultService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return errors.Internal(err)
	}
	return nil
}
