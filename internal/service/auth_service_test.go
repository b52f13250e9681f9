package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/gym-manager/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

type stubLimiter struct {
	allow bool
	calls int
}

func (l *stubLimiter) Allow(context.Context, string, string) (bool, time.Duration, error) {
	l.calls++
	return l.allow, time.Minute, nil
}

func TestCreateStaffValidation(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), nil, testSecret, time.Hour)
	tests := []struct {
		name  string
		in    StaffInput
		field string
	}{
		{name: "no name", in: StaffInput{Email: "a@gym.test", Password: "password1", Role: domain.RoleTrainer}, field: "name"},
		{name: "bad email", in: StaffInput{Name: "A", Email: "nope", Password: "password1", Role: domain.RoleTrainer}, field: "email"},
		{name: "bad role", in: StaffInput{Name: "A", Email: "a@gym.test", Password: "password1", Role: "owner"}, field: "role"},
		{name: "short password", in: StaffInput{Name: "A", Email: "a@gym.test", Password: "short", Role: domain.RoleTrainer}, field: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateStaff(context.Background(), tt.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Fatalf("err = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestLoginIssuesToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, nil, testSecret, time.Hour)
	ctx := context.Background()

	created, err := svc.CreateStaff(ctx, StaffInput{Name: "Alice", Email: "Alice@Gym.test", Password: "password1", Role: domain.RoleTrainer})
	if err != nil {
		t.Fatalf("CreateStaff() error = %v", err)
	}
	if created.Email != "alice@gym.test" || created.PasswordHash != "" {
		t.Errorf("created = %+v", created)
	}
	if _, err := svc.CreateStaff(ctx, StaffInput{Name: "Dup", Email: "alice@gym.test", Password: "password1", Role: domain.RoleAdmin}); err == nil {
		t.Error("duplicate email accepted")
	}

	token, user, err := svc.Login(ctx, " ALICE@gym.test ", "password1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != created.ID || user.PasswordHash != "" {
		t.Errorf("user = %+v", user)
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.UserID != created.ID.Hex() || claims.Role != domain.RoleTrainer {
		t.Errorf("claims = %+v", claims)
	}

	if _, _, err := svc.Login(ctx, "alice@gym.test", "wrong-password"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@gym.test", "password1"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("unknown email: err = %v", err)
	}

	repo.users[created.ID].IsActive = false
	if _, _, err := svc.Login(ctx, "alice@gym.test", "password1"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("inactive user: err = %v", err)
	}
}

func TestLoginThrottled(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	svc := NewAuthService(newStubUserRepo(), limiter, testSecret, time.Hour)

	_, _, err := svc.Login(context.Background(), "a@gym.test", "password1")
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("err = %v, want ErrTooManyAttempts", err)
	}
	if limiter.calls != 1 {
		t.Errorf("limiter calls = %d, want 1", limiter.calls)
	}
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, nil, testSecret, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.EnsureBootstrapAdmin(ctx, "Administrator", "admin@gym.test", "change-me-now"); err != nil {
			t.Fatalf("EnsureBootstrapAdmin() error = %v", err)
		}
	}
	role := domain.RoleAdmin
	admins, _ := repo.List(ctx, &role, false)
	if len(admins) != 1 {
		t.Fatalf("admins = %d, want exactly 1", len(admins))
	}
}

func TestDeactivateStaff(t *testing.T) {
	f := newFixture()
	alice := f.addTrainer("Alice")
	svc := NewAuthService(f.users, nil, testSecret, time.Hour)
	ctx := context.Background()

	var vErr *ValidationError
	if err := svc.DeactivateStaff(ctx, trainerActor(alice), alice.ID); !errors.As(err, &vErr) {
		t.Errorf("self deactivation: err = %v, want ValidationError", err)
	}
	if err := svc.DeactivateStaff(ctx, adminActor, alice.ID); err != nil {
		t.Fatalf("DeactivateStaff() error = %v", err)
	}
	trainers, _ := svc.ListTrainers(ctx)
	if len(trainers) != 0 {
		t.Errorf("active trainers = %d, want 0", len(trainers))
	}
}
