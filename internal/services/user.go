package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/auth"
	"github.com/teamboard-dev/teamboard/internal/models"
	"github.com/teamboard-dev/teamboard/internal/repository"
	"github.com/teamboard-dev/teamboard/internal/types"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// UserService is the identity and credential store: registration, login and
// resolving bearer tokens back to users.
type UserService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *slog.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, tokens: tokens, bcryptCost: bcryptCost, logger: logger}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = types.RoleMember
	}

	switch {
	case name == "":
		return nil, apperr.Validation("Name is required")
	case !emailPattern.MatchString(email):
		return nil, apperr.Validation("Invalid email format")
	case len(req.Password) < MinPasswordLength:
		return nil, apperr.Validation("Password must be at least %d characters long", MinPasswordLength)
	case !types.ValidRole(role):
		return nil, apperr.Validation("Role must be one of: %s, %s", types.RoleAdmin, types.RoleMember)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()), slog.String("role", user.Role))

	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("Invalid email or password")
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	return s.issue(user)
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Unauthenticated("Not authorized, token failed")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("Not authorized, user not found")
		}
		return nil, err
	}

	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*types.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) issue(user *models.User) (*types.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	return &types.AuthResponse{UserResponse: toUserResponse(user), Token: token}, nil
}
