package controllers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/aihub/rag-service/app/bootstrap"
	"github.com/aihub/rag-service/internal/logger"
	"github.com/aihub/rag-service/internal/services"
)

// AuthController 认证接口
type AuthController struct {
	BaseController
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 用户名密码登录，签发JWT
func (c *AuthController) Login() {
	var req LoginRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSONError(http.StatusBadRequest, "username and password are required")
		return
	}

	app := bootstrap.GetApp()
	user, err := app.UserService.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	token, err := app.JWTService.GenerateToken(user.UserID, user.Username, user.Role)
	if err != nil {
		logger.Error("Failed to generate token", zap.Error(err))
		c.JSONError(http.StatusInternalServerError, "failed to generate token")
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"user_id":  user.UserID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Register 创建新用户，仅管理员可用
func (c *AuthController) Register() {
	if _, ok := c.requireAdmin(); !ok {
		return
	}

	var req services.RegisterRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := bootstrap.GetApp().UserService.Register(req)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"user_id":  user.UserID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}
