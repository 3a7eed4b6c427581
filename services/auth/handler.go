package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scosmb-portal/pkg/config"
	"scosmb-portal/pkg/errutil"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type Handler struct {
	svc        *Service
	cookieName string
	cookieTTL  int
	secure     bool
}

func NewHandler(svc *Service, cfg *config.Config) *Handler {
	return &Handler{
		svc:        svc,
		cookieName: cfg.Session.Name,
		cookieTTL:  int(cfg.Session.TTL.Seconds()),
		secure:     cfg.AppEnv == "production",
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.SetCookie(h.cookieName, sess.Token, h.cookieTTL, "/", "", h.secure, true)
	c.JSON(http.StatusOK, sessionResponse{
		Email: sess.Email,
		Name:  sess.Name,
		Role:  string(sess.Role),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cookieName)
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		c.Error(err)
		return
	}

	c.SetCookie(h.cookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"loggedOut": true})
}

func (h *Handler) Me(c *gin.Context) {
	sess := SessionFrom(c)
	if sess == nil {
		c.Error(errutil.Unauthorized("login required"))
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Email: sess.Email,
		Name:  sess.Name,
		Role:  string(sess.Role),
	})
}
