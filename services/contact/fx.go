package contact

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"scosmb-portal/services/auth"
)

var Module = fx.Module("contact.module",
	fx.Provide(NewService, NewHandler),
)

var ServerModule = fx.Module("contact.server",
	Module,
	fx.Invoke(registerRoutes),
)

// WorkerModule wires the notify task handler into the asynq mux.
var WorkerModule = fx.Module("contact.worker",
	fx.Provide(NewService, NewTaskHandler),
	fx.Invoke(RegisterTasks),
)

type routeParams struct {
	fx.In

	Engine  *gin.Engine
	Handler *Handler
	Auth    *auth.Middleware
}

func registerRoutes(p routeParams) {
	p.Engine.POST("/api/v1/contact", p.Handler.Submit)

	admin := p.Engine.Group("/api/v1/admin", p.Auth.Authorize())
	admin.GET("/messages", p.Handler.ListMessages)
}
