package blog

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/errutil"
	"scosmb-portal/services/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type postRequest struct {
	Title     string   `json:"title" binding:"required"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

type postResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content,omitempty"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(p *Post, withContent bool) postResponse {
	resp := postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Category:  p.Category,
		Tags:      p.Tags,
		Views:     p.Views,
		Likes:     p.Likes,
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if withContent {
		resp.Content = p.Content
	}
	return resp
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", errutil.WithErr(err)))
		return
	}

	sess := auth.SessionFrom(c)
	if sess == nil {
		c.Error(errutil.Unauthorized("login required"))
		return
	}

	post, err := h.svc.Create(c.Request.Context(), sess.TechnicianID, PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(post, true))
}

func (h *Handler) UpdatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("invalid request body", errutil.WithErr(err)))
		return
	}

	post, err := h.svc.Update(c.Request.Context(), c.Param("id"), PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, toResponse(post, true))
}

func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toResponse(post, true))
}

func (h *Handler) ListPosts(c *gin.Context) {
	page := pagination.Pagination{
		Page:  cast.ToInt(c.Query("page")),
		Limit: cast.ToInt(c.Query("limit")),
	}

	posts, err := h.svc.List(c.Request.Context(), ListFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Page:     page,
	})
	if err != nil {
		c.Error(err)
		return
	}

	items := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		items = append(items, toResponse(p, false))
	}
	c.JSON(http.StatusOK, gin.H{"posts": items})
}

func (h *Handler) LikePost(c *gin.Context) {
	likes, err := h.svc.Like(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}
