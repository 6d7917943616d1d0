package router

import (
	"github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aihub/rag-service/app/controllers"
	"github.com/aihub/rag-service/app/middleware"
)

// Init 注册路由与过滤器
func Init() {
	web.InsertFilter("/*", web.BeforeRouter, middleware.CORSFilter)
	web.InsertFilter("/*", web.BeforeRouter, middleware.JWTAuthFilter)

	web.Router("/", &controllers.StatsController{}, "get:Root")
	web.Router("/health", &controllers.StatsController{}, "get:Health")
	web.Handler("/metrics", promhttp.Handler())

	// 认证
	web.Router("/api/auth/login", &controllers.AuthController{}, "post:Login")
	web.Router("/api/auth/register", &controllers.AuthController{}, "post:Register")

	// 文档
	web.Router("/api/documents/upload", &controllers.DocumentController{}, "post:Upload")
	web.Router("/api/documents", &controllers.DocumentController{}, "get:List")
	web.Router("/api/documents/:id", &controllers.DocumentController{}, "delete:Delete")

	// 问答
	web.Router("/api/query", &controllers.QueryController{}, "post:Ask")

	// 用户管理（仅admin）
	web.Router("/api/users", &controllers.UserController{}, "get:List")
	web.Router("/api/users/:id", &controllers.UserController{}, "delete:Delete")
	web.Router("/api/users/:id/role", &controllers.UserController{}, "put:UpdateRole")

	// 统计（仅admin）
	web.Router("/api/stats", &controllers.StatsController{}, "get:Stats")
}
