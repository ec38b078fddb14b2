package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/garage-kit/shop-service/internal/auth"
	"github.com/garage-kit/shop-service/internal/config"
	"github.com/garage-kit/shop-service/internal/domain"
	"github.com/garage-kit/shop-service/internal/repository"
	apperrors "github.com/garage-kit/shop-service/pkg/util/errorutil"
)

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*repository.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*repository.PasswordResetToken)}
}

func (f *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token.ID == "" {
		token.ID = token.Token
	}
	clone := *token
	f.tokens[token.Token] = &clone
	return nil
}

func (f *fakeResetRepo) GetByToken(_ context.Context, token string) (*repository.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tokens[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, token := range f.tokens {
		if token.ID == id {
			token.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *fakeResetRepo) {
	t.Helper()
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   15,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              4,
		},
	}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
		Denylist:          auth.NewDenylist(nil),
	})
	return svc, users, resets
}

func TestRegisterDefaultsToCustomer(t *testing.T) {
	svc, users, _ := newAuthFixture(t)

	user, token, _, err := svc.Register(context.Background(), "Dana", "dana@shop.test", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("missing token")
	}
	if !user.HasRole(domain.RoleCustomer) {
		t.Fatalf("want CUSTOMER role, got %v", user.Role)
	}
	if _, err := users.GetByEmail(context.Background(), "dana@shop.test"); err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	seedUser(users, "u1", domain.RoleCustomer)

	_, _, _, err := svc.Register(context.Background(), "Copy", "u1@shop.test", "hunter22")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeConflict {
		t.Fatalf("want CONFLICT, got %v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	hash, err := auth.HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users.add(&domain.User{ID: "u1", Email: "u1@shop.test", PasswordHash: hash, Active: true}, domain.RoleTechnician)

	user, token, _, err := svc.Login(context.Background(), "u1@shop.test", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token uid %s, want %s", claims.UserID, user.ID)
	}

	if _, _, _, err := svc.Login(context.Background(), "u1@shop.test", "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
	if _, _, _, err := svc.Login(context.Background(), "ghost@shop.test", "hunter22"); err == nil {
		t.Fatal("unknown email accepted")
	}
}

func TestLoginSuspendedAccount(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	hash, _ := auth.HashPassword("hunter22", 4)
	users.add(&domain.User{ID: "u1", Email: "u1@shop.test", PasswordHash: hash, Active: false}, domain.RoleCustomer)

	_, _, _, err := svc.Login(context.Background(), "u1@shop.test", "hunter22")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeUnauthorized {
		t.Fatalf("want UNAUTHORIZED, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	hash, _ := auth.HashPassword("old-password", 4)
	users.add(&domain.User{ID: "u1", Email: "u1@shop.test", PasswordHash: hash, Active: true}, domain.RoleCustomer)

	token, err := svc.RequestPasswordReset(context.Background(), "u1@shop.test")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}

	if err := svc.ConfirmPasswordReset(context.Background(), token.Token, "new-password"); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "u1@shop.test", "new-password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// One-time token.
	if err := svc.ConfirmPasswordReset(context.Background(), token.Token, "another"); err == nil {
		t.Fatal("used token accepted again")
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	hash, _ := auth.HashPassword("current", 4)
	users.add(&domain.User{ID: "u1", Email: "u1@shop.test", PasswordHash: hash, Active: true}, domain.RoleCustomer)

	if err := svc.ChangePassword(context.Background(), "u1", "wrong", "next"); err == nil {
		t.Fatal("wrong current password accepted")
	}
	if err := svc.ChangePassword(context.Background(), "u1", "current", "next"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "u1@shop.test", "next"); err != nil {
		t.Fatalf("login with changed password: %v", err)
	}
}
