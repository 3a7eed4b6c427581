package bootstrap

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/repository"
	"scosmb-portal/services/auth"
	"scosmb-portal/services/blog"
	"scosmb-portal/services/contact"
	"scosmb-portal/services/license"
)

type Service struct {
	db       *gorm.DB
	config   *config.Config
	accounts *auth.Service
	repo     repository.Repository[auth.Technician]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Config   *config.Config
	Accounts *auth.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		config:   p.Config,
		accounts: p.Accounts,
		repo:     repository.ProvideStore[auth.Technician](p.DB),
	}
}

// Migrate brings the schema up to date and seeds the first admin account.
func (s *Service) Migrate() error {
	ctx := context.Background()

	if err := s.db.AutoMigrate(
		&license.LicenseKey{},
		&license.DownloadLog{},
		&auth.Technician{},
		&blog.Post{},
		&contact.Message{},
	); err != nil {
		zap.L().Error("[bootstrap] migration failed", zap.Error(err))
		return err
	}

	return s.seedAdmin(ctx)
}

func (s *Service) seedAdmin(ctx context.Context) error {
	admin := s.config.Admin
	if admin.Email == "" || admin.Password == "" {
		zap.L().Warn("[bootstrap] Admin account not configured, skipping seed")
		return nil
	}

	exist, err := s.repo.FindOne(ctx, &auth.Technician{Email: admin.Email})
	if err != nil {
		zap.L().Error("[bootstrap] Error checking admin account", zap.Error(err))
		return err
	}
	if exist != nil {
		zap.L().Info("[bootstrap] Admin account already exists", zap.String("email", admin.Email))
		return nil
	}

	name := admin.Name
	if name == "" {
		name = "Administrator"
	}

	if _, err := s.accounts.CreateAccount(ctx, name, admin.Email, admin.Password, auth.RoleAdmin); err != nil {
		zap.L().Error("[bootstrap] Failed to seed admin account", zap.Error(err))
		return err
	}

	zap.L().Info("[bootstrap] Admin account created", zap.String("email", admin.Email))
	return nil
}
