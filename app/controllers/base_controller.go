package controllers

import (
	"net/http"

	"github.com/beego/beego/v2/server/web"

	"github.com/aihub/rag-service/internal/auth"
	apperrors "github.com/aihub/rag-service/internal/errors"
	"github.com/aihub/rag-service/internal/rag"
)

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	c.ServeJSON()
}

// JSONSuccess writes a standard success envelope.
func (c *BaseController) JSONSuccess(data interface{}) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// JSONAppError 按错误分类映射HTTP状态码
func (c *BaseController) JSONAppError(err error) {
	appErr := apperrors.GetAppError(err)
	c.JSONError(appErr.HTTPCode, appErr.Message)
}

// currentClaims 获取认证中间件写入的JWT声明
func (c *BaseController) currentClaims() (*auth.JWTClaims, bool) {
	claims, ok := c.Ctx.Input.GetData(auth.ClaimsContextKey).(*auth.JWTClaims)
	if !ok || claims == nil {
		c.JSONError(http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return claims, true
}

// currentRole 解析当前调用者角色，未识别的角色直接拒绝
func (c *BaseController) currentRole(claims *auth.JWTClaims) (rag.Role, bool) {
	role, err := rag.ParseRole(claims.Role)
	if err != nil {
		c.JSONError(http.StatusUnauthorized, "unrecognized role")
		return rag.RoleUser, false
	}
	return role, true
}

// requireAdmin 要求管理员身份
func (c *BaseController) requireAdmin() (*auth.JWTClaims, bool) {
	claims, ok := c.currentClaims()
	if !ok {
		return nil, false
	}
	role, ok := c.currentRole(claims)
	if !ok {
		return nil, false
	}
	if role != rag.RoleAdmin {
		c.JSONError(http.StatusForbidden, "admin access required")
		return nil, false
	}
	return claims, true
}
