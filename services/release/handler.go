package release

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scosmb-portal/pkg/errutil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Latest serves the download page. Without a platform it returns the
// whole release; with one it narrows to that platform's asset.
func (h *Handler) Latest(c *gin.Context) {
	raw := c.Query("platform")
	if raw == "" {
		rel, err := h.svc.Latest(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, rel)
		return
	}

	platform, ok := ParsePlatform(raw)
	if !ok {
		c.Error(errutil.ValidationFailed("unknown platform"))
		return
	}

	rel, asset, err := h.svc.LatestFor(c.Request.Context(), platform)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"version":     rel.Version,
		"publishedAt": rel.PublishedAt,
		"asset":       asset,
	})
}

func (h *Handler) Invalidate(c *gin.Context) {
	if err := h.svc.Invalidate(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
