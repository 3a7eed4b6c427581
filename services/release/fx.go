package release

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"scosmb-portal/services/auth"
)

var Module = fx.Module("release.module",
	fx.Provide(NewGitHubClient, NewService, NewHandler),
)

var ServerModule = fx.Module("release.server",
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
	p.Engine.GET("/api/v1/releases/latest", p.Handler.Latest)

	admin := p.Engine.Group("/api/v1/admin", p.Auth.Authorize())
	admin.POST("/releases/invalidate", p.Handler.Invalidate)
}
