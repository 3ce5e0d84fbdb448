package service

import (
	"errors"

	"github.com/bizcribe/bizcribe-backend/config"
	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"github.com/bizcribe/bizcribe-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        model.UserRole

	// Optional first business submission created together with the account
	Submission *SubmissionInput
}

type ProfileUpdate struct {
	DisplayName *string
	Password    *string
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Refresh(refreshToken string) (*util.TokenPair, error)
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error)
}

type authService struct {
	userRepo          repository.UserRepository
	submissionService SubmissionService
	jwtConfig         *config.JWTConfig
}

func NewAuthService(
	userRepo repository.UserRepository,
	submissionService SubmissionService,
	jwtConfig *config.JWTConfig,
) AuthService {
	return &authService{
		userRepo:          userRepo,
		submissionService: submissionService,
		jwtConfig:         jwtConfig,
	}
}

// Register creates a user account and issues a token pair. A business owner
// may include their first submission in the same request; it is created
// right after the account.
func (s *authService) Register(input RegisterInput) (*model.User, *util.TokenPair, error) {
	logger.Info("Registering new user", map[string]interface{}{
		"email": input.Email,
	})

	existing, err := s.userRepo.FindByEmail(input.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if existing != nil {
		logger.Warn("Registration attempted with existing email", map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, nil, err
	}

	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	if role == model.RoleAdmin {
		// Admin accounts are seeded, never self-registered.
		role = model.RoleUser
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, err
	}

	if input.Submission != nil {
		if _, err := s.submissionService.Create(*input.Submission, user.ID); err != nil {
			// The account exists; a failed inline submission should not
			// block the registration.
			logger.Warn("Inline submission failed during registration", map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

// Refresh validates a refresh token and rotates the pair. Access tokens are
// rejected here: only tokens minted as refresh tokens may be exchanged.
func (s *authService) Refresh(refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtConfig.Secret)
	if err != nil {
		return nil, util.ErrInvalidToken
	}
	if claims.TokenType != util.TokenTypeRefresh {
		logger.Warn("Refresh attempted with non-refresh token", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil, util.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidToken
		}
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.Password != nil {
		hash, err := util.HashPassword(*update.Password)
		if err != nil {
			logger.Error("Failed to hash new password", err)
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User profile updated", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtConfig.Secret,
		s.jwtConfig.AccessTokenExpiry,
		s.jwtConfig.RefreshTokenExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate token pair", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}
