package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// LoginLimiter throttles login attempts per subject.
type LoginLimiter interface {
	Allow(ctx context.Context, scope, subject string) (bool, time.Duration, error)
}

// StaffInput carries the fields of a new staff account.
type StaffInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetJWTSecret() string

	CreateStaff(ctx context.Context, in StaffInput) (*domain.User, error)
	ListStaff(ctx context.Context, role *domain.Role) ([]domain.User, error)
	DeactivateStaff(ctx context.Context, actor Actor, id primitive.ObjectID) error
	ListTrainers(ctx context.Context) ([]domain.User, error)
	// EnsureBootstrapAdmin creates the first admin when no admin exists yet.
	EnsureBootstrapAdmin(ctx context.Context, name, email, password string) error
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	limiter       LoginLimiter
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService. limiter may be nil.
func NewAuthService(userRepo repository.UserRepository, limiter LoginLimiter, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 12 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		limiter:       limiter,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Login handles staff authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrAuthenticationFailed
	}

	// 1. Throttle by email
	if s.limiter != nil {
		allowed, retryAfter, err := s.limiter.Allow(ctx, "login", email)
		if err != nil {
			log.Printf("WARN: Login rate limiter unavailable: %v", err)
		} else if !allowed {
			log.Printf("WARN: Login throttled for %s, retry in %s", email, retryAfter)
			return "", nil, ErrTooManyAttempts
		}
	}

	// 2. Fetch user by email
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	// 3. Compare the provided password with the stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}
	if !user.IsActive {
		return "", nil, ErrAuthenticationFailed
	}

	// 4. Generate JWT
	token, err := s.generateJWT(user)
	if err != nil {
		log.Printf("ERROR: Signing token for user %s: %v", user.ID.Hex(), err)
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

func (s *authService) GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) CreateStaff(ctx context.Context, in StaffInput) (*domain.User, error) {
	// 1. Validate input
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", "Name is required.")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, newValidationError("email", "A valid email is required.")
	}
	if !in.Role.Valid() {
		return nil, newValidationError("role", "Role must be admin, front_desk or trainer.")
	}
	if len(in.Password) < minPasswordLength {
		return nil, newValidationError("password", "Password must be at least 8 characters.")
	}

	// 2. Hash the password
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	// 3. Save; the unique email index catches races
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         in.Role,
		IsActive:     true,
	}
	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError("email", "A user with this email already exists.")
		}
		return nil, err
	}
	user.ID = id
	user.PasswordHash = ""
	log.Printf("INFO: Created %s account %s", user.Role, user.Email)
	return user, nil
}

func (s *authService) ListStaff(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	if role != nil && !role.Valid() {
		return nil, newValidationError("role", "Unknown role.")
	}
	return s.userRepo.List(ctx, role, false)
}

func (s *authService) DeactivateStaff(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if actor.ID == id {
		return newValidationError("id", "You cannot deactivate your own account.")
	}
	if err := s.userRepo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *authService) ListTrainers(ctx context.Context) ([]domain.User, error) {
	role := domain.RoleTrainer
	return s.userRepo.List(ctx, &role, true)
}

func (s *authService) EnsureBootstrapAdmin(ctx context.Context, name, email, password string) error {
	role := domain.RoleAdmin
	admins, err := s.userRepo.List(ctx, &role, false)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return nil
	}
	if email == "" || password == "" {
		log.Println("WARN: No admin account exists and no bootstrap admin is configured")
		return nil
	}
	_, err = s.CreateStaff(ctx, StaffInput{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
	return err
}

// --- JWT Helper ---

// Claims defines the structure of the JWT payload.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "gym-manager",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
