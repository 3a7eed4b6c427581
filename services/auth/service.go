package auth

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scosmb-portal/pkg/errutil"
	"scosmb-portal/pkg/repository"
	"scosmb-portal/pkg/security"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	sessions *SessionStore
	accounts repository.Repository[Technician]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Sessions *SessionStore
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		sessions: p.Sessions,
		accounts: repository.ProvideStore[Technician](p.DB),
	}
}

// Login verifies the credentials and mints a new session. The same generic
// error covers unknown accounts and bad passwords.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.accounts.FindOne(ctx, &Technician{Email: email, Active: true})
	if err != nil {
		zap.L().Error("failed to look up technician", zap.Error(err))
		return nil, errutil.Internal("login failed", errutil.WithErr(err))
	}
	if account == nil {
		return nil, errutil.Unauthorized("invalid email or password")
	}

	match, err := security.VerifyArgon2(password, account.PasswordHash)
	if err != nil || !match {
		return nil, errutil.Unauthorized("invalid email or password")
	}

	token, err := security.GenerateBase64Secret(32)
	if err != nil {
		zap.L().Error("failed to generate session token", zap.Error(err))
		return nil, errutil.Internal("login failed", errutil.WithErr(err))
	}

	sess := &Session{
		Token:        token,
		TechnicianID: account.ID,
		Email:        account.Email,
		Name:         account.Name,
		Role:         account.Role,
		IssuedAt:     time.Now(),
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		zap.L().Error("failed to store session", zap.Error(err))
		return nil, errutil.Internal("login failed", errutil.WithErr(err))
	}

	zap.L().Info("technician logged in",
		zap.String("technician_id", account.ID),
		zap.String("role", string(account.Role)),
	)

	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		zap.L().Error("failed to delete session", zap.Error(err))
		return errutil.Internal("logout failed", errutil.WithErr(err))
	}
	return nil
}

// CreateAccount provisions a technician account. Used by bootstrap seeding
// and by admins adding colleagues.
func (s *Service) CreateAccount(ctx context.Context, name, email, password string, role Role) (*Technician, error) {
	exist, err := s.accounts.FindOne(ctx, &Technician{Email: email})
	if err != nil {
		return nil, errutil.Internal("failed to create account", errutil.WithErr(err))
	}
	if exist != nil {
		return nil, errutil.Conflict("account already exists")
	}

	hash, err := security.HashArgon2(password)
	if err != nil {
		return nil, errutil.Internal("failed to create account", errutil.WithErr(err))
	}

	account := &Technician{
		ID:           s.node.Generate().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, errutil.Internal("failed to create account", errutil.WithErr(err))
	}

	return account, nil
}
