package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"todoapp/internal/model"
	"todoapp/internal/repository"
	"todoapp/internal/service/auth"
	"todoapp/internal/session"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

type fakeUserStore struct {
	byEmail map[string]*model.User
	nextID  int64
	creates int
	findErr error
	racing  bool // simulate losing the check-then-create race
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*model.User{}, nextID: 1}
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	u, ok := s.byEmail[email]
	if !ok {
		if s.racing {
			// the competing sign-in commits between our lookup and insert
			s.racing = false
			s.byEmail[email] = &model.User{ID: s.nextID, Email: email, Name: "racer"}
			s.nextID++
		}
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User) error {
	if _, ok := s.byEmail[u.Email]; ok {
		return repository.ErrEmailTaken
	}
	s.creates++
	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = time.Now()
	cp := *u
	s.byEmail[u.Email] = &cp
	return nil
}

type fakeSessions struct {
	byToken map[string]*model.Principal
	nextID  int
	err     error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: map[string]*model.Principal{}}
}

func (s *fakeSessions) Create(_ context.Context, p *model.Principal) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.nextID++
	token := fmt.Sprintf("tok-%d", s.nextID)
	cp := *p
	s.byToken[token] = &cp
	return token, nil
}

func (s *fakeSessions) Get(_ context.Context, token string) (*model.Principal, error) {
	p, ok := s.byToken[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeSessions) Delete(_ context.Context, token string) error {
	delete(s.byToken, token)
	return nil
}

type nopPublisher struct{ published []string }

func (p *nopPublisher) Publish(routingKey string, _ any) error {
	p.published = append(p.published, routingKey)
	return nil
}

func newService(users *fakeUserStore, sessions *fakeSessions) (*auth.Service, *nopPublisher) {
	pub := &nopPublisher{}
	return auth.NewService(users, sessions, pub, testSecret, zap.NewNop()), pub
}

func TestSignInCreatesUserOnFirstSignIn(t *testing.T) {
	users := newFakeUserStore()
	sessions := newFakeSessions()
	svc, pub := newService(users, sessions)

	raw := signToken(t, testSecret, jwt.MapClaims{
		"email":   "a@x.com",
		"name":    "Alice",
		"picture": "https://img.example/a.png",
	})

	token, p, err := svc.SignIn(context.Background(), raw)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if p.Email != "a@x.com" || p.Name != "Alice" || p.Image != "https://img.example/a.png" {
		t.Errorf("unexpected principal: %+v", p)
	}
	if users.creates != 1 {
		t.Errorf("expected 1 user creation, got %d", users.creates)
	}
	if len(pub.published) != 1 || pub.published[0] != "user.registered" {
		t.Errorf("expected user.registered event, got %v", pub.published)
	}
}

func TestSignInTwiceCreatesOneUser(t *testing.T) {
	users := newFakeUserStore()
	sessions := newFakeSessions()
	svc, _ := newService(users, sessions)

	raw := signToken(t, testSecret, jwt.MapClaims{"email": "a@x.com", "name": "Alice"})

	if _, _, err := svc.SignIn(context.Background(), raw); err != nil {
		t.Fatalf("first SignIn: %v", err)
	}
	if _, _, err := svc.SignIn(context.Background(), raw); err != nil {
		t.Fatalf("second SignIn: %v", err)
	}
	if users.creates != 1 {
		t.Errorf("two sign-ins with the same email must create exactly one user, got %d", users.creates)
	}
}

func TestSignInRejectsBadSignature(t *testing.T) {
	svc, _ := newService(newFakeUserStore(), newFakeSessions())

	raw := signToken(t, "wrong-secret", jwt.MapClaims{"email": "a@x.com"})
	if _, _, err := svc.SignIn(context.Background(), raw); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignInRejectsMissingEmail(t *testing.T) {
	svc, _ := newService(newFakeUserStore(), newFakeSessions())

	raw := signToken(t, testSecret, jwt.MapClaims{"name": "No Email"})
	if _, _, err := svc.SignIn(context.Background(), raw); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignInFailsClosedOnStoreError(t *testing.T) {
	users := newFakeUserStore()
	users.findErr = errors.New("store unreachable")
	sessions := newFakeSessions()
	svc, _ := newService(users, sessions)

	raw := signToken(t, testSecret, jwt.MapClaims{"email": "a@x.com"})
	token, _, err := svc.SignIn(context.Background(), raw)
	if err == nil {
		t.Fatal("expected error when store is unreachable")
	}
	if token != "" {
		t.Error("no session may be issued when the store fails")
	}
	if len(sessions.byToken) != 0 {
		t.Error("no session may be stored when the store fails")
	}
}

func TestSignInRecoversFromDuplicateRace(t *testing.T) {
	users := newFakeUserStore()
	users.racing = true
	sessions := newFakeSessions()
	svc, _ := newService(users, sessions)

	raw := signToken(t, testSecret, jwt.MapClaims{"email": "a@x.com", "name": "Alice"})
	_, p, err := svc.SignIn(context.Background(), raw)
	if err != nil {
		t.Fatalf("SignIn should recover from a duplicate-key race, got %v", err)
	}
	if p.Name != "racer" {
		t.Errorf("expected the winner's record to be used, got %+v", p)
	}
	if users.creates != 0 {
		t.Errorf("the losing sign-in must not create a user, got %d creations", users.creates)
	}
}

func TestResolveUnknownTokenIsUnauthenticated(t *testing.T) {
	svc, _ := newService(newFakeUserStore(), newFakeSessions())

	if _, err := svc.Resolve(context.Background(), "no-such-token"); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSignOutInvalidatesSession(t *testing.T) {
	users := newFakeUserStore()
	sessions := newFakeSessions()
	svc, _ := newService(users, sessions)

	raw := signToken(t, testSecret, jwt.MapClaims{"email": "a@x.com"})
	token, _, err := svc.SignIn(context.Background(), raw)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), token); err != nil {
		t.Fatalf("Resolve before sign-out: %v", err)
	}
	if err := svc.SignOut(context.Background(), token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), token); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated after sign-out, got %v", err)
	}
}
