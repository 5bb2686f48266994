package application

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/stayhive/service-rental/internal/domain"
	userDomain "github.com/stayhive/service-rental/internal/domain/user"
	"github.com/stayhive/service-rental/internal/platform/auth"
)

// RegisterRequest holds the data needed to create an account.
type RegisterRequest struct {
	FirstName        string `json:"first_name" binding:"required"`
	LastName         string `json:"last_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	ProfileImagePath string `json:"profile_image_path"`
}

// LoginRequest holds credentials for token issuance.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserDTO is the response representation of an account.
type UserDTO struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	ProfileImagePath string    `json:"profile_image_path,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// LoginResult carries the tokens and account returned on login.
type LoginResult struct {
	User   UserDTO        `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// UserService handles registration and credential-based login.
type UserService struct {
	users      userDomain.UserRepository
	jwtManager *auth.JWTManager
	clock      clockwork.Clock
	logger     *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users userDomain.UserRepository, jwtManager *auth.JWTManager, clock clockwork.Clock, logger *zap.Logger) *UserService {
	return &UserService{
		users:      users,
		jwtManager: jwtManager,
		clock:      clock,
		logger:     logger,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewValidationError("password could not be hashed")
	}

	u, err := userDomain.NewUser(req.FirstName, req.LastName, req.Email, string(hash), req.ProfileImagePath, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID().String()))
	result := toUserDTO(u)
	return &result, nil
}

// Login verifies credentials and issues a token pair.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewForbiddenError("invalid email or password")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash()), []byte(req.Password)) != nil {
		return nil, domain.NewForbiddenError("invalid email or password")
	}

	tokens, err := s.jwtManager.Issue(u.ID())
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: toUserDTO(u), Tokens: tokens}, nil
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:               u.ID().String(),
		FirstName:        u.FirstName(),
		LastName:         u.LastName(),
		Email:            u.Email(),
		ProfileImagePath: u.ProfileImagePath(),
		CreatedAt:        u.CreatedAt(),
	}
}
