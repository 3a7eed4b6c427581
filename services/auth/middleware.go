package auth

import (
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/errutil"
)

const sessionContextKey = "auth.session"

// Middleware gates routes on a valid session cookie and the casbin policy.
type Middleware struct {
	sessions   *SessionStore
	enforcer   *casbin.Enforcer
	cookieName string
}

type MiddlewareParams struct {
	fx.In
	Sessions *SessionStore
	Enforcer *casbin.Enforcer
	Config   *config.Config
}

func NewMiddleware(p MiddlewareParams) *Middleware {
	return &Middleware{
		sessions:   p.Sessions,
		enforcer:   p.Enforcer,
		cookieName: p.Config.Session.Name,
	}
}

func (m *Middleware) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(m.cookieName)
		if err != nil || token == "" {
			c.Error(errutil.Unauthorized("login required"))
			c.Abort()
			return
		}

		sess, err := m.sessions.Get(c.Request.Context(), token)
		if err != nil {
			zap.L().Error("failed to load session", zap.Error(err))
			c.Error(errutil.Internal("session lookup failed", errutil.WithErr(err)))
			c.Abort()
			return
		}
		if sess == nil {
			c.Error(errutil.Unauthorized("session expired"))
			c.Abort()
			return
		}

		allowed, err := m.enforcer.Enforce(string(sess.Role), c.Request.URL.Path, c.Request.Method)
		if err != nil {
			c.Error(errutil.Internal("authorization failed", errutil.WithErr(err)))
			c.Abort()
			return
		}
		if !allowed {
			c.Error(errutil.Forbidden("insufficient permissions"))
			c.Abort()
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// SessionFrom returns the session the middleware attached, if any.
func SessionFrom(c *gin.Context) *Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}
