package services

import (
	"context"

	stderrors "errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aihub/rag-service/internal/auth"
	apperrors "github.com/aihub/rag-service/internal/errors"
	"github.com/aihub/rag-service/internal/logger"
	"github.com/aihub/rag-service/internal/models"
	"github.com/aihub/rag-service/internal/rag"
)

// UserService 用户管理服务
type UserService struct {
	db       *gorm.DB
	pipeline *rag.Pipeline
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, pipeline *rag.Pipeline) *UserService {
	return &UserService{db: db, pipeline: pipeline}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Register 创建用户，角色默认为user
func (s *UserService) Register(req RegisterRequest) (*models.User, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to query users").WithCause(err)
	}
	if count > 0 {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeConflict, "username already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to hash password").WithCause(err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to create user").WithCause(err)
	}

	logger.Info("User registered",
		zap.Int64("user_id", user.UserID),
		zap.String("role", user.Role))
	return user, nil
}

// Authenticate 用户名密码认证
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewUnauthorizedError("invalid credentials")
		}
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to query user").WithCause(err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}

	return &user, nil
}

// ListUsers 列出全部用户
func (s *UserService) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("user_id").Find(&users).Error; err != nil {
		return nil, apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to list users").WithCause(err)
	}
	return users, nil
}

// UpdateRole 更新用户角色
func (s *UserService) UpdateRole(userID int64, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return apperrors.NewValidationError("role must be 'user' or 'admin'")
	}

	result := s.db.Model(&models.User{}).Where("user_id = ?", userID).Update("role", role)
	if result.Error != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to update role").WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user")
	}
	return nil
}

// CountUsers 用户总数（管理面板用）
func (s *UserService) CountUsers() int64 {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0
	}
	return count
}

// DeleteUser 删除用户及其全部数据
// 向量删除始终绑定被删除用户的user_id，绝不使用执行操作的管理员身份
func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	var user models.User
	if err := s.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("user")
		}
		return apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to query user").WithCause(err)
	}
	if user.IsAdmin() {
		return apperrors.NewBusinessError(apperrors.ErrCodeAccessDenied, "cannot delete admin account")
	}

	// 先清除该用户的全部向量记录，filename留空表示全量
	if err := s.pipeline.DeleteForOwner(ctx, user.UserID, ""); err != nil {
		return err
	}

	if err := s.db.Where("owner_id = ?", user.UserID).Delete(&models.Document{}).Error; err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to delete documents").WithCause(err)
	}
	if err := s.db.Delete(&user).Error; err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to delete user").WithCause(err)
	}

	logger.Info("User deleted", zap.Int64("user_id", userID))
	return nil
}
