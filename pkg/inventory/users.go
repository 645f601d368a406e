package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/tacacs-console/pkg/apperr"
	"github.com/yourorg/tacacs-console/pkg/db/models"
)

// CreateUserRequest represents a request to create a TACACS+ user
type CreateUserRequest struct {
	Username     string `json:"username" binding:"required"`
	PasswordType string `json:"password_type"`
	Password     string `json:"password"`
	Member       string `json:"member" binding:"required"`
	Description  string `json:"description"`
}

// UpdateUserRequest represents a request to update a TACACS+ user
type UpdateUserRequest struct {
	Username     *string `json:"username"`
	PasswordType *string `json:"password_type"`
	Password     *string `json:"password"`
	Member       *string `json:"member"`
	Description  *string `json:"description"`
}

func validPasswordType(t string) bool {
	switch models.PasswordType(t) {
	case models.PasswordTypeMavis, models.PasswordTypeClear, models.PasswordTypeCrypt:
		return true
	}
	return false
}

// CreateUser creates a new TACACS+ user
func (m *Manager) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	taken, err := m.nameTaken(&models.User{}, "username", req.Username, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Newf(apperr.CodeConflict, "user %q already exists", req.Username)
	}

	passwordType := req.PasswordType
	if passwordType == "" {
		passwordType = string(models.PasswordTypeMavis)
	}
	if !validPasswordType(passwordType) {
		return nil, apperr.Validation("password_type", "must be one of: mavis, clear, crypt")
	}
	if passwordType != string(models.PasswordTypeMavis) && req.Password == "" {
		return nil, apperr.Validation("password", "password is required for clear and crypt users")
	}

	if err := m.groupExists(req.Member); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordType: models.PasswordType(passwordType),
		Password:     req.Password,
		Member:       req.Member,
		Description:  req.Description,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := m.db.Create(user).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to create user")
	}

	m.logger.Info("tacacs user created",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("member", user.Member))

	return user, nil
}

// GetUser retrieves a TACACS+ user by ID
func (m *Manager) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := m.first(&user, "user", id); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns one page of TACACS+ users and the total count.
func (m *Manager) ListUsers(ctx context.Context, skip, limit int) ([]models.User, int64, error) {
	var total int64
	if err := m.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to count users")
	}

	var users []models.User
	if err := paginate(m.db.Order("username ASC"), skip, limit).Find(&users).Error; err != nil {
		return nil, 0, apperr.Wrap(err, apperr.CodeInternal, "failed to list users")
	}
	return users, total, nil
}

// UpdateUser updates a TACACS+ user
func (m *Manager) UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	user, err := m.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Username != nil && *req.Username != user.Username {
		taken, err := m.nameTaken(&models.User{}, "username", *req.Username, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Newf(apperr.CodeConflict, "user %q already exists", *req.Username)
		}
		updates["username"] = *req.Username
	}
	if req.PasswordType != nil {
		if !validPasswordType(*req.PasswordType) {
			return nil, apperr.Validation("password_type", "must be one of: mavis, clear, crypt")
		}
		updates["password_type"] = *req.PasswordType
	}
	if req.Password != nil {
		updates["password"] = *req.Password
	}
	if req.Member != nil {
		if err := m.groupExists(*req.Member); err != nil {
			return nil, err
		}
		updates["member"] = *req.Member
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if err := m.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update user")
	}

	return m.GetUser(ctx, id)
}

// DeleteUser deletes a TACACS+ user
func (m *Manager) DeleteUser(ctx context.Context, id string) error {
	user, err := m.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := m.db.Delete(user).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete user")
	}

	m.logger.Info("tacacs user deleted",
		zap.String("user_id", id),
		zap.String("username", user.Username))

	return nil
}

func (m *Manager) groupExists(name string) error {
	var count int64
	if err := m.db.Model(&models.Group{}).Where("group_name = ?", name).Count(&count).Error; err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to check group membership")
	}
	if count == 0 {
		return apperr.Reference("group", "member", name)
	}
	return nil
}
