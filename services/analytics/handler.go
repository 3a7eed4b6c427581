package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Summary(c *gin.Context) {
	snap, err := h.svc.Summarize(c.Request.Context(), ParseRange(c.Query("range")))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, snap)
}
