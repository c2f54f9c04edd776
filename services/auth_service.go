// services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/logger"
	"tote-sponsor-system/models"
)

var (
	ErrEmailTaken         = apperrors.NewConflictError("a user with this email already exists")
	ErrInvalidCredentials = apperrors.NewUnauthorizedError("invalid credentials")
	ErrInvalidRole        = apperrors.NewValidationError("role must be one of CREATOR, SPONSOR, CLAIMANT")
	ErrEmailRequired      = apperrors.NewValidationError("email is required for creator and sponsor accounts")
	ErrLoginIDRequired    = apperrors.NewValidationError("email or mobNumber is required")
	ErrUserNotFound       = apperrors.NewNotFoundError("user not found")
)

type AuthService struct {
	DB         *gorm.DB
	tokens     *TokenService
	bcryptCost int
}

func NewAuthService(db *gorm.DB, tokens *TokenService, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{DB: db, tokens: tokens, bcryptCost: bcryptCost}
}

type RegisterInput struct {
	Name      string
	Email     string
	MobNumber string
	Password  string
	Role      string
}

type LoginInput struct {
	Email     string
	MobNumber string
	Password  string
}

type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Register creates a creator, sponsor or claimant account and signs a token
// for it. Claimants may register with a mobile number only.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role, ok := models.ParseRegistrationRole(in.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	email := normalizeEmail(in.Email)
	if email == "" && role != models.RoleClaimant {
		return nil, ErrEmailRequired
	}
	mob := strings.TrimSpace(in.MobNumber)
	if email == "" && mob == "" {
		return nil, ErrLoginIDRequired
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		MobNumber:    mob,
		PasswordHash: hash,
		Role:         role,
	}
	if email != "" {
		user.Email = &email
	}

	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	q := s.DB.WithContext(ctx)
	switch email := normalizeEmail(in.Email); {
	case email != "":
		q = q.Where("email = ?", email)
	case strings.TrimSpace(in.MobNumber) != "":
		q = q.Where("mob_number = ?", strings.TrimSpace(in.MobNumber)).Order("created_at ASC")
	default:
		return nil, ErrLoginIDRequired
	}

	var user models.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.LoginComplete {
		if err := s.DB.WithContext(ctx).Model(&user).Update("login_complete", true).Error; err != nil {
			return nil, fmt.Errorf("mark login complete: %w", err)
		}
		user.LoginComplete = true
	}
	return s.issue(&user)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// EnsureAdmin creates the moderation account from configuration if it does
// not exist yet. Admins cannot sign up through Register.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	admin := &models.User{Name: "Administrator", Email: &email, PasswordHash: hash, Role: models.RoleAdmin, LoginComplete: true}
	if err := s.DB.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Info("admin account created", "user_id", admin.ID)
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate password hash: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
