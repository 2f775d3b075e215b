package jobs

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/forms"
	"resume-dashboard/internal/shared/server/middleware"
	"resume-dashboard/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches job and listing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.list)
	rg.POST("/jobs", h.create)
	rg.GET("/jobs/:id", h.get)
	rg.PUT("/jobs/:id", h.update)
	rg.DELETE("/jobs/:id", h.remove)

	rg.GET("/listings", h.search)
	rg.GET("/listings/:id", h.listing)
	rg.POST("/listings/:id/save", h.saveListing)
}

type jobRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Company     string `json:"company" validate:"notblank,max=200"`
	Location    string `json:"location" validate:"max=200"`
	URL         string `json:"url" validate:"omitempty,http_url,max=2048"`
	Description string `json:"description" validate:"notblank,min=20,max=50000"`
}

func (r jobRequest) input() apiclient.JobInput {
	return apiclient.JobInput{
		Title:       strings.TrimSpace(r.Title),
		Company:     strings.TrimSpace(r.Company),
		Location:    strings.TrimSpace(r.Location),
		URL:         strings.TrimSpace(r.URL),
		Description: r.Description,
	}
}

type searchQuery struct {
	Query    string `form:"q" json:"q" validate:"max=200"`
	Location string `form:"location" json:"location" validate:"max=200"`
	Remote   bool   `form:"remote" json:"remote"`
	Page     int    `form:"page" json:"page" validate:"gte=0,lte=500"`
	PageSize int    `form:"pageSize" json:"pageSize" validate:"gte=0,lte=50"`
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Svc.List(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Remote(c, err, "failed to list jobs")
		return
	}
	if out == nil {
		out = []apiclient.Job{}
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	j, err := h.Svc.Get(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Remote(c, err, "failed to load job")
		return
	}
	respond.OK(c, j)
}

func (h *Handler) create(c *gin.Context) {
	var req jobRequest
	if !forms.Bind(c, &req) {
		return
	}
	j, err := h.Svc.Create(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), req.input())
	if err != nil {
		respond.Remote(c, err, "failed to create job")
		return
	}
	respond.Created(c, j)
}

func (h *Handler) update(c *gin.Context) {
	var req jobRequest
	if !forms.Bind(c, &req) {
		return
	}
	j, err := h.Svc.Update(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), req.input())
	if err != nil {
		respond.Remote(c, err, "failed to update job")
		return
	}
	respond.OK(c, j)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Remote(c, err, "failed to delete job")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid query", nil)
		return
	}
	if !forms.Check(c, q) {
		return
	}
	page, err := h.Svc.Search(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), apiclient.ListingQuery{
		Query:    strings.TrimSpace(q.Query),
		Location: strings.TrimSpace(q.Location),
		Remote:   q.Remote,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		respond.Remote(c, err, "failed to search listings")
		return
	}
	if page.Items == nil {
		page.Items = []apiclient.JobListing{}
	}
	respond.OK(c, page)
}

func (h *Handler) listing(c *gin.Context) {
	l, err := h.Svc.Listing(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Remote(c, err, "failed to load listing")
		return
	}
	respond.OK(c, l)
}

func (h *Handler) saveListing(c *gin.Context) {
	j, err := h.Svc.SaveListing(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Remote(c, err, "failed to save listing")
		return
	}
	respond.Created(c, j)
}
