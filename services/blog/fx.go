package blog

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"scosmb-portal/services/auth"
)

var Module = fx.Module("blog.module",
	fx.Provide(NewService, NewHandler),
)

var ServerModule = fx.Module("blog.server",
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
	public := p.Engine.Group("/api/v1/blog")
	public.GET("", p.Handler.ListPosts)
	public.GET("/:slug", p.Handler.GetPost)
	public.POST("/:slug/like", p.Handler.LikePost)

	portal := p.Engine.Group("/api/v1/portal/blog", p.Auth.Authorize())
	portal.POST("", p.Handler.CreatePost)
	portal.PUT("/:id", p.Handler.UpdatePost)
	portal.DELETE("/:id", p.Handler.DeletePost)
}
