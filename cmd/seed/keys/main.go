package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/db"
	"scosmb-portal/pkg/gen"
	"scosmb-portal/pkg/logger"
	"scosmb-portal/services/license"
)

// Seeds a handful of demo license keys for local development.
func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		gen.Module,
		license.Module,
		fx.Invoke(seed),
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

func seed(lc fx.Lifecycle, gdb *gorm.DB, svc *license.Service, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := gdb.AutoMigrate(&license.LicenseKey{}, &license.DownloadLog{}); err != nil {
				return err
			}

			demos := []license.IssueRequest{
				{CustomerName: "Dana Reyes", CustomerEmail: "dana@acme.test", CustomerCompany: "Acme Print Shop"},
				{CustomerName: "Sam Okafor", CustomerEmail: "sam@northwind.test", CustomerCompany: "Northwind Dental", MaxDownloads: 5},
				{CustomerName: "Lee Tran", CustomerEmail: "lee@oakside.test"},
			}

			for _, req := range demos {
				key, err := svc.Issue(ctx, req)
				if err != nil {
					zap.L().Error("failed to seed key", zap.String("customer", req.CustomerEmail), zap.Error(err))
					continue
				}
				zap.L().Info("seeded license key",
					zap.String("key_code", key.KeyCode),
					zap.String("customer", key.CustomerEmail),
				)
			}

			return shutdowner.Shutdown()
		},
	})
}
