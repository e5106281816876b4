package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"todoapp/contracts/mq"
	"todoapp/internal/model"
	"todoapp/internal/repository"
	"todoapp/internal/session"
)

var (
	// ErrInvalidToken means the provider ID token failed verification.
	ErrInvalidToken = errors.New("invalid identity token")

	// ErrUnauthenticated means no valid session backs the request.
	ErrUnauthenticated = errors.New("unauthenticated")
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

type SessionStore interface {
	Create(ctx context.Context, p *model.Principal) (string, error)
	Get(ctx context.Context, token string) (*model.Principal, error)
	Delete(ctx context.Context, token string) error
}

type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Service owns the session lifecycle: sign-in (consuming the identity
// provider's signed claims), per-request resolution, and sign-out.
type Service struct {
	users          UserStore
	sessions       SessionStore
	publisher      EventPublisher
	providerSecret string
	logger         *zap.Logger
}

func NewService(users UserStore, sessions SessionStore, publisher EventPublisher, providerSecret string, logger *zap.Logger) *Service {
	return &Service{
		users:          users,
		sessions:       sessions,
		publisher:      publisher,
		providerSecret: providerSecret,
		logger:         logger,
	}
}

type providerClaims struct {
	email string
	name  string
	image string
}

func (s *Service) verifyIDToken(raw string) (providerClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.providerSecret), nil
	})
	if err != nil || !token.Valid {
		return providerClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return providerClaims{}, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return providerClaims{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	image, _ := claims["picture"].(string)

	return providerClaims{email: email, name: name, image: image}, nil
}

// SignIn verifies the provider ID token, finds or creates the user record,
// and issues a session. Any store failure fails closed: the caller gets an
// error, never a session.
func (s *Service) SignIn(ctx context.Context, rawToken string) (string, *model.Principal, error) {
	claims, err := s.verifyIDToken(rawToken)
	if err != nil {
		return "", nil, err
	}

	u, err := s.users.FindByEmail(ctx, claims.email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		nu := &model.User{Name: claims.name, Email: claims.email, Image: claims.image}
		cerr := s.users.Create(ctx, nu)
		if errors.Is(cerr, repository.ErrEmailTaken) {
			// lost the check-then-create race; the other sign-in's row serves
			u, err = s.users.FindByEmail(ctx, claims.email)
			if err != nil {
				s.logger.Error("Re-fetch after duplicate sign-in failed", zap.Error(err))
				return "", nil, err
			}
		} else if cerr != nil {
			s.logger.Error("User creation on first sign-in failed", zap.Error(cerr))
			return "", nil, cerr
		} else {
			u = nu
			s.publishRegistered(u)
		}
	case err != nil:
		s.logger.Error("User lookup on sign-in failed", zap.Error(err))
		return "", nil, err
	}

	p := &model.Principal{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Image:  u.Image,
	}

	token, err := s.sessions.Create(ctx, p)
	if err != nil {
		s.logger.Error("Session creation failed", zap.Error(err))
		return "", nil, err
	}

	s.logger.Info("Sign-in succeeded", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return token, p, nil
}

// Resolve maps a session token to its principal. Each call hits the
// session store; nothing is cached between requests.
func (s *Service) Resolve(ctx context.Context, token string) (*model.Principal, error) {
	p, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return p, nil
}

// SignOut invalidates the session.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *Service) publishRegistered(u *model.User) {
	payload := mq.UserRegisteredPayload{UserID: u.ID, Email: u.Email}
	if err := s.publisher.Publish(mq.RoutingUserRegistered, payload); err != nil {
		s.logger.Warn("Failed to publish user.registered", zap.Error(err), zap.Int64("user_id", u.ID))
	}
}
