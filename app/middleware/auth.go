package middleware

import (
	"net/http"
	"strings"

	"github.com/beego/beego/v2/server/web/context"

	"github.com/aihub/rag-service/app/bootstrap"
	"github.com/aihub/rag-service/internal/auth"
)

// 无需认证的路径
var authWhitelist = map[string]bool{
	"/":               true,
	"/health":         true,
	"/metrics":        true,
	"/api/auth/login": true,
}

// JWTAuthFilter 认证过滤器，校验Bearer token并将声明写入请求上下文
func JWTAuthFilter(ctx *context.Context) {
	path := ctx.Input.URL()
	if authWhitelist[path] || strings.HasPrefix(path, "/static/") {
		return
	}

	token, err := auth.ExtractTokenFromHeader(ctx.Input.Header("Authorization"))
	if err != nil {
		unauthorized(ctx, err.Error())
		return
	}

	claims, err := bootstrap.GetApp().JWTService.ValidateToken(token)
	if err != nil {
		unauthorized(ctx, "invalid or expired token")
		return
	}

	ctx.Input.SetData(auth.ClaimsContextKey, claims)
}

func unauthorized(ctx *context.Context, message string) {
	ctx.Output.SetStatus(http.StatusUnauthorized)
	_ = ctx.Output.JSON(map[string]interface{}{
		"success": false,
		"error":   message,
	}, false, false)
}
