package license

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"scosmb-portal/services/auth"
)

var Module = fx.Module("license.module",
	fx.Provide(NewService, NewHandler),
)

var ServerModule = fx.Module("license.server",
	Module,
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Engine  *gin.Engine
	Handler *Handler
	Auth    *auth.Middleware
}

func registerRoutes(p routeParams) {
	v1 := p.Engine.Group("/api/v1")

	v1.POST("/license/validate", p.Handler.ValidateKey)

	admin := v1.Group("/admin", p.Auth.Authorize())
	admin.POST("/keys", p.Handler.IssueKey)
	admin.GET("/keys", p.Handler.ListKeys)
	admin.POST("/keys/revoke", p.Handler.RevokeKey)
}
