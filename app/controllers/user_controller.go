package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aihub/rag-service/app/bootstrap"
)

// UserController 用户管理接口，全部要求管理员身份
type UserController struct {
	BaseController
}

// List 列出全部用户
func (c *UserController) List() {
	if _, ok := c.requireAdmin(); !ok {
		return
	}

	users, err := bootstrap.GetApp().UserService.ListUsers()
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

// UpdateRoleRequest 角色更新请求
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole 更新用户角色
func (c *UserController) UpdateRole() {
	if _, ok := c.requireAdmin(); !ok {
		return
	}

	userID, err := strconv.ParseInt(c.Ctx.Input.Param(":id"), 10, 64)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateRoleRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	if err := bootstrap.GetApp().UserService.UpdateRole(userID, req.Role); err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{"user_id": userID, "role": req.Role})
}

// Delete 删除用户及其全部文档与向量
func (c *UserController) Delete() {
	if _, ok := c.requireAdmin(); !ok {
		return
	}

	userID, err := strconv.ParseInt(c.Ctx.Input.Param(":id"), 10, 64)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid user id")
		return
	}

	if err := bootstrap.GetApp().UserService.DeleteUser(c.Ctx.Request.Context(), userID); err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{"user_id": userID, "deleted": true})
}
