package controllers

import (
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/aihub/rag-service/app/bootstrap"
	"github.com/aihub/rag-service/internal/logger"
)

// DocumentController 文档上传、列表与删除接口
type DocumentController struct {
	BaseController
}

// Upload 上传文档并入库向量
func (c *DocumentController) Upload() {
	claims, ok := c.currentClaims()
	if !ok {
		return
	}

	file, header, err := c.GetFile("file")
	if err != nil {
		c.JSONError(http.StatusBadRequest, "missing 'file' in multipart form")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", zap.Error(err))
		c.JSONError(http.StatusInternalServerError, "failed to read uploaded file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	result, err := bootstrap.GetApp().DocumentService.Upload(
		c.Ctx.Request.Context(), claims.UserID, header.Filename, contentType, content)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// List 列出文档，admin可见全部，普通用户只见自己的
func (c *DocumentController) List() {
	claims, ok := c.currentClaims()
	if !ok {
		return
	}
	role, ok := c.currentRole(claims)
	if !ok {
		return
	}

	docs, err := bootstrap.GetApp().DocumentService.List(claims.UserID, role)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

// Delete 删除文档及其向量记录
func (c *DocumentController) Delete() {
	claims, ok := c.currentClaims()
	if !ok {
		return
	}
	role, ok := c.currentRole(claims)
	if !ok {
		return
	}

	docID, err := strconv.ParseInt(c.Ctx.Input.Param(":id"), 10, 64)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid document id")
		return
	}

	if err := bootstrap.GetApp().DocumentService.Delete(c.Ctx.Request.Context(), docID, claims.UserID, role); err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{"document_id": docID, "deleted": true})
}
