package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aihub/rag-service/app/bootstrap"
)

// QueryController RAG问答接口
type QueryController struct {
	BaseController
}

// QueryRequest 问答请求
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// Ask 基于调用者可见文档回答问题
// 检索范围由JWT中的身份与角色决定，请求体无法扩大
func (c *QueryController) Ask() {
	claims, ok := c.currentClaims()
	if !ok {
		return
	}
	role, ok := c.currentRole(claims)
	if !ok {
		return
	}

	var req QueryRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSONError(http.StatusBadRequest, "question is required")
		return
	}

	result, err := bootstrap.GetApp().Pipeline.Query(
		c.Ctx.Request.Context(), req.Question, claims.UserID, role, req.TopK)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(result)
}
