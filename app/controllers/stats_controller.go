package controllers

import (
	"github.com/aihub/rag-service/app/bootstrap"
)

// StatsController 系统状态与统计接口
type StatsController struct {
	BaseController
}

// Health 健康检查
func (c *StatsController) Health() {
	c.JSONSuccess(map[string]interface{}{"status": "ok"})
}

// Root 服务信息
func (c *StatsController) Root() {
	c.JSONSuccess(map[string]interface{}{
		"service": "rag-service",
		"docs":    "/api",
	})
}

// Stats 管理面板统计，向量集合统计失败时降级为零值
func (c *StatsController) Stats() {
	if _, ok := c.requireAdmin(); !ok {
		return
	}

	app := bootstrap.GetApp()
	collection := app.Pipeline.Stats(c.Ctx.Request.Context())

	c.JSONSuccess(map[string]interface{}{
		"total_documents":   app.DocumentService.CountDocuments(),
		"total_users":       app.UserService.CountUsers(),
		"total_vectors":     collection.TotalVectors,
		"collection_status": collection.Status,
	})
}
