package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.module",
	fx.Provide(
		NewSessionStore,
		NewEnforcer,
		NewMiddleware,
		NewService,
		NewHandler,
	),
)

var ServerModule = fx.Module("auth.server",
	Module,
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Engine     *gin.Engine
	Handler    *Handler
	Middleware *Middleware
}

func registerRoutes(p routeParams) {
	v1 := p.Engine.Group("/api/v1")

	v1.POST("/auth/login", p.Handler.Login)
	v1.POST("/auth/logout", p.Handler.Logout)

	portal := v1.Group("/portal", p.Middleware.Authorize())
	portal.GET("/me", p.Handler.Me)
}
