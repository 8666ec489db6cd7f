package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"eventix/internal/domain"
	"eventix/internal/repository"
)

// UserStore is the durable user record storage. *postgres.UserRepo
// satisfies it.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type Service struct {
	users UserStore
	cfg   Config
}

func New(users UserStore, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	return &Service{users: users, cfg: cfg}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Register creates a new user and returns it with a signed token.
//
// Returns ErrEmailTaken if the email is already registered.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	const op = "service.auth.Register"

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	role := in.Role
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}

	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", fmt.Errorf("%s:%w", op, ErrEmailTaken)
		}

		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	u.ID = id

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	return u, token, nil
}

// Login verifies the credentials and returns the user with a signed token.
//
// Returns ErrInvalidCredentials for an unknown email or a wrong password;
// the two cases are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	const op = "service.auth.Login"

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
		}

		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", fmt.Errorf("%s:%w", op, err)
	}

	return u, token, nil
}

// Me retrieves the caller's own user record.
func (s *Service) Me(ctx context.Context, ident domain.Identity) (*domain.User, error) {
	const op = "service.auth.Me"

	u, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return u, nil
}

// ListUsers retrieves all users. The transport layer restricts it to
// admins.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	const op = "service.auth.ListUsers"

	out, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) issueToken(u *domain.User) (string, error) {
	return SignToken(s.cfg.JWTSecret, domain.Identity{UserID: u.ID, Role: u.Role}, s.cfg.TokenTTL)
}
