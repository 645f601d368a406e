package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// Service verifies console user credentials and issues tokens.
type Service struct {
	db         *gorm.DB
	jwtManager *JWTManager
	logger     *zap.Logger
}

// NewService creates a new authentication service
func NewService(db *gorm.DB, jwtManager *JWTManager, logger *zap.Logger) *Service {
	return &Service{
		db:         db,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Login verifies the credentials and returns a signed token plus the
// account. Disabled accounts and bad passwords both map to UNAUTHORIZED
// without distinguishing which failed.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.ConsoleUser, error) {
	var user models.ConsoleUser
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.New(apperr.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, apperr.Wrap(err, apperr.CodeInternal, "failed to load account")
	}

	if !user.IsActive {
		s.logger.Warn("login attempt on disabled account", zap.String("email", email))
		return "", nil, apperr.New(apperr.CodeUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("failed login attempt", zap.String("email", email))
		return "", nil, apperr.New(apperr.CodeUnauthorized, "invalid credentials")
	}

	scopes := DefaultScopes
	if user.IsSuperuser {
		scopes = []string{"*"}
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, scopes, user.IsSuperuser, 0)
	if err != nil {
		return "", nil, apperr.Wrap(err, apperr.CodeInternal, "failed to sign token")
	}

	s.logger.Info("console user logged in",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email))

	return token, &user, nil
}

// ChangePassword updates the account's password after verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	var user models.ConsoleUser
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("account")
		}
		return apperr.Wrap(err, apperr.CodeInternal, "failed to load account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperr.New(apperr.CodeUnauthorized, "current password is incorrect")
	}

	if len(next) < 8 {
		return apperr.Validation("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to hash password")
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"password_hash": string(hash),
		"updated_at":    time.Now(),
	}).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to update password")
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}
