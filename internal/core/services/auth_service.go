package services

import (
	"context"
	"errors"
	"log"

	"tapledger/internal/adapters/persistence/models"
	"tapledger/internal/adapters/persistence/repositories"
	"tapledger/internal/core/domain"
	"tapledger/internal/pkg/password"
	"tapledger/internal/pkg/token"
	"tapledger/internal/pkg/validation"

	"gorm.io/gorm"
)

// tokenName labels tokens issued through the API auth flow
const tokenName = "auth_token"

// AuthService handles authentication business logic
type AuthService struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.AccessTokenRepository
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	tokenRepo repositories.AccessTokenRepository,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User  *models.UserResponse `json:"user"`
	Token string               `json:"token"`
}

// Register registers a new user and issues a bearer token
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	// 1. Validate input format
	if fields := validation.Struct(input); fields != nil {
		return nil, domain.NewFieldErrors(fields)
	}

	// 2. Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewFieldErrors(map[string]string{
			"email": "The email has already been taken",
		})
	}

	// 3. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 4. Create user
	user := &models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 5. Issue token
	plain, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("user registered: %s", user.Email)

	return &AuthResponse{
		User:  user.ToResponse(),
		Token: plain,
	}, nil
}

// Login authenticates a user and issues a new bearer token. Existing tokens
// stay live; multiple sessions per user are allowed.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Validate input format
	if fields := validation.Struct(input); fields != nil {
		return nil, domain.NewFieldErrors(fields)
	}

	// 2. Find user by email. Unknown email and wrong password are
	// indistinguishable to the caller.
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 3. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Issue token
	plain, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("user logged in: %s", user.Email)

	return &AuthResponse{
		User:  user.ToResponse(),
		Token: plain,
	}, nil
}

// Logout deletes exactly the presented token. Deleting an already-absent
// token is a no-op.
func (s *AuthService) Logout(ctx context.Context, plainToken string) error {
	if err := s.tokenRepo.DeleteByTokenHash(ctx, password.HashToken(plainToken)); err != nil {
		return err
	}
	log.Printf("user logged out")
	return nil
}

// CurrentUser resolves a bearer token to its owning user, with roles and
// permissions attached.
func (s *AuthService) CurrentUser(ctx context.Context, plainToken string) (*models.User, error) {
	if plainToken == "" {
		return nil, domain.ErrUnauthenticated
	}

	stored, err := s.tokenRepo.GetByTokenHash(ctx, password.HashToken(plainToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	// Usage tracking feeds the stale-token cleanup job; a failed touch is
	// not fatal to the request.
	if err := s.tokenRepo.TouchLastUsed(ctx, stored.ID); err != nil {
		log.Printf("failed to touch token %d: %v", stored.ID, err)
	}

	return &stored.User, nil
}

// issueToken creates and stores a new opaque token for the user and returns
// the plaintext.
func (s *AuthService) issueToken(ctx context.Context, userID uint) (string, error) {
	plain, err := token.New()
	if err != nil {
		return "", err
	}

	record := &models.AccessToken{
		UserID:    userID,
		Name:      tokenName,
		TokenHash: password.HashToken(plain),
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return "", err
	}

	return plain, nil
}
