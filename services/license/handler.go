package license

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/errutil"
)

func intQuery(c *gin.Context, name string) (int, error) {
	return strconv.Atoi(c.Query(name))
}

type validateRequest struct {
	LicenseKey string `json:"licenseKey" binding:"required"`
	Platform   string `json:"platform" binding:"required"`
	Version    string `json:"version"`
}

type validateResponse struct {
	Valid              bool   `json:"valid"`
	DownloadsRemaining *int   `json:"downloadsRemaining,omitempty"`
	Error              string `json:"error,omitempty"`
}

type issueRequest struct {
	CustomerName    string     `json:"customerName"`
	CustomerEmail   string     `json:"customerEmail"`
	CustomerCompany string     `json:"customerCompany"`
	MaxDownloads    int        `json:"maxDownloads"`
	ExpiresAt       *time.Time `json:"expiresAt"`
}

type revokeRequest struct {
	Key string `json:"key" binding:"required"`
}

type keyResponse struct {
	ID                 string     `json:"id"`
	KeyCode            string     `json:"keyCode"`
	Status             string     `json:"status"`
	DownloadCount      int        `json:"downloadCount"`
	MaxDownloads       int        `json:"maxDownloads"`
	DownloadsRemaining int        `json:"downloadsRemaining"`
	CustomerName       string     `json:"customerName,omitempty"`
	CustomerEmail      string     `json:"customerEmail,omitempty"`
	CustomerCompany    string     `json:"customerCompany,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	RevokedAt          *time.Time `json:"revokedAt,omitempty"`
}

func toKeyResponse(k *LicenseKey) keyResponse {
	return keyResponse{
		ID:                 k.ID,
		KeyCode:            k.KeyCode,
		Status:             k.Status.String(),
		DownloadCount:      k.DownloadCount,
		MaxDownloads:       k.MaxDownloads,
		DownloadsRemaining: k.DownloadsRemaining(),
		CustomerName:       k.CustomerName,
		CustomerEmail:      k.CustomerEmail,
		CustomerCompany:    k.CustomerCompany,
		CreatedAt:          k.CreatedAt,
		ExpiresAt:          k.ExpiresAt,
		RevokedAt:          k.RevokedAt,
	}
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ValidateKey is the public validation endpoint. Every validator verdict is
// an HTTP 200; only a storage fault becomes a 500.
func (h *Handler) ValidateKey(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, validateResponse{Valid: false, Error: string(ErrInvalidFormat)})
		return
	}

	result := h.svc.Validate(c.Request.Context(), req.LicenseKey, req.Platform, req.Version)
	if result.Err == ErrStorage {
		c.Error(errutil.Internal("validation unavailable"))
		return
	}

	resp := validateResponse{Valid: result.Valid}
	if result.Valid {
		remaining := result.DownloadsRemaining
		resp.DownloadsRemaining = &remaining
	} else {
		resp.Error = string(result.Err)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) IssueKey(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	key, err := h.svc.Issue(c.Request.Context(), IssueRequest{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerCompany: req.CustomerCompany,
		MaxDownloads:    req.MaxDownloads,
		ExpiresAt:       req.ExpiresAt,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, toKeyResponse(key))
}

func (h *Handler) ListKeys(c *gin.Context) {
	page := pagination.Pagination{}
	if v, err := intQuery(c, "page"); err == nil {
		page.Page = v
	}
	if v, err := intQuery(c, "limit"); err == nil {
		page.Limit = v
	}

	keys, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		c.Error(err)
		return
	}

	out := make([]keyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, toKeyResponse(k))
	}

	c.JSON(http.StatusOK, gin.H{"keys": out})
}

func (h *Handler) RevokeKey(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	if err := h.svc.Revoke(c.Request.Context(), req.Key); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": true})
}
