package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/db"
	"scosmb-portal/pkg/gen"
	"scosmb-portal/pkg/health"
	"scosmb-portal/pkg/logger"
	"scosmb-portal/pkg/minio"
	"scosmb-portal/pkg/redis"
	"scosmb-portal/pkg/server"
	"scosmb-portal/pkg/task"
	"scosmb-portal/services/analytics"
	"scosmb-portal/services/auth"
	"scosmb-portal/services/blog"
	"scosmb-portal/services/bootstrap"
	"scosmb-portal/services/contact"
	"scosmb-portal/services/license"
	"scosmb-portal/services/release"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		minio.Client,
		task.Client,
		server.ProvideHTTPServer,
		health.Module,
		auth.ServerModule,
		license.ServerModule,
		analytics.ServerModule,
		blog.ServerModule,
		contact.ServerModule,
		release.ServerModule,
		bootstrap.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
