package analytics

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"scosmb-portal/services/auth"
)

var Module = fx.Module("analytics.module",
	fx.Provide(NewService, NewHandler),
)

var ServerModule = fx.Module("analytics.server",
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
	admin := p.Engine.Group("/api/v1/admin", p.Auth.Authorize())
	admin.GET("/analytics", p.Handler.Summary)
}
