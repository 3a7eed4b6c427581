package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"scosmb-portal/pkg/config"
)

const sessionKeyPrefix = "session:"

// SessionStore persists login sessions in redis with the configured TTL.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

type SessionStoreParams struct {
	fx.In
	Redis  *redis.Client
	Config *config.Config
}

func NewSessionStore(p SessionStoreParams) *SessionStore {
	return &SessionStore{
		rdb: p.Redis,
		ttl: p.Config.Session.TTL,
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, token)
}

func (s *SessionStore) Create(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sess.Token), payload, s.ttl).Err()
}

// Get returns (nil, nil) for an unknown or expired token.
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}
