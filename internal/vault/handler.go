package vault

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/forms"
	"resume-dashboard/internal/shared/server/middleware"
	"resume-dashboard/internal/shared/server/respond"
)

const (
	defaultListLimit  = 50
	defaultMatchLimit = 20
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches vault routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/blocks", h.list)
	rg.POST("/blocks", h.create)
	rg.POST("/blocks/import", h.importResume)
	rg.GET("/blocks/match", h.match)
	rg.GET("/blocks/:id", h.get)
	rg.PUT("/blocks/:id", h.update)
	rg.DELETE("/blocks/:id", h.remove)
}

type blockRequest struct {
	Content   string   `json:"content" validate:"notblank,max=2000"`
	BlockType string   `json:"blockType" validate:"oneof=achievement responsibility skill project certification education summary"`
	Tags      []string `json:"tags" validate:"max=20,dive,notblank,max=50"`
	Verified  *bool    `json:"verified"`
}

func (r blockRequest) input() apiclient.BlockInput {
	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, strings.ToLower(strings.TrimSpace(t)))
	}
	return apiclient.BlockInput{
		Content:   strings.TrimSpace(r.Content),
		BlockType: r.BlockType,
		Tags:      tags,
		Verified:  r.Verified,
	}
}

type listQuery struct {
	Query     string   `form:"q" json:"q" validate:"max=200"`
	BlockType string   `form:"type" json:"type" validate:"omitempty,oneof=achievement responsibility skill project certification education summary"`
	Tags      []string `form:"tag" json:"tag" validate:"max=20"`
	Limit     int      `form:"limit" json:"limit" validate:"gte=0,lte=200"`
	Offset    int      `form:"offset" json:"offset" validate:"gte=0"`
}

type importRequest struct {
	ResumeID string `json:"resumeId" validate:"notblank,max=64"`
}

type matchQuery struct {
	JobID string `form:"jobId" json:"jobId" validate:"notblank,max=64"`
	Limit int    `form:"limit" json:"limit" validate:"gte=0,lte=100"`
}

func (h *Handler) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid query", nil)
		return
	}
	if !forms.Check(c, q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultListLimit
	}
	out, err := h.Svc.List(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), apiclient.BlockFilter{
		Query:     strings.TrimSpace(q.Query),
		BlockType: q.BlockType,
		Tags:      q.Tags,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		respond.Remote(c, err, "failed to list blocks")
		return
	}
	if out == nil {
		out = []apiclient.Block{}
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	b, err := h.Svc.Get(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Remote(c, err, "failed to load block")
		return
	}
	respond.OK(c, b)
}

func (h *Handler) create(c *gin.Context) {
	var req blockRequest
	if !forms.Bind(c, &req) {
		return
	}
	b, err := h.Svc.Create(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), req.input())
	if err != nil {
		respond.Remote(c, err, "failed to create block")
		return
	}
	respond.Created(c, b)
}

func (h *Handler) update(c *gin.Context) {
	var req blockRequest
	if !forms.Bind(c, &req) {
		return
	}
	b, err := h.Svc.Update(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), req.input())
	if err != nil {
		respond.Remote(c, err, "failed to update block")
		return
	}
	respond.OK(c, b)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Remote(c, err, "failed to delete block")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) importResume(c *gin.Context) {
	var req importRequest
	if !forms.Bind(c, &req) {
		return
	}
	out, err := h.Svc.Import(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), req.ResumeID)
	if err != nil {
		respond.Remote(c, err, "failed to import blocks")
		return
	}
	if out == nil {
		out = []apiclient.Block{}
	}
	respond.Created(c, out)
}

func (h *Handler) match(c *gin.Context) {
	var q matchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid query", nil)
		return
	}
	if !forms.Check(c, q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultMatchLimit
	}
	out, err := h.Svc.Match(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), q.JobID, q.Limit)
	if err != nil {
		respond.Remote(c, err, "failed to match blocks")
		return
	}
	if out == nil {
		out = []apiclient.BlockMatch{}
	}
	respond.OK(c, out)
}
