package tailored

import (
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

// RegisterRoutes attaches tailored resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tailored", h.list)
	rg.POST("/tailored", h.tailor)
	rg.GET("/tailored/:id", h.get)
	rg.PATCH("/tailored/:id", h.update)
	rg.DELETE("/tailored/:id", h.remove)
}

type tailorRequest struct {
	ResumeID string `json:"resumeId" validate:"notblank,max=64"`
	JobID    string `json:"jobId" validate:"notblank,max=64"`
}

type updateRequest struct {
	Content apiclient.ResumeContent `json:"content"`
	Style   *apiclient.ResumeStyle  `json:"style"`
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Svc.List(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Query("jobId"))
	if err != nil {
		respond.Remote(c, err, "failed to list tailored resumes")
		return
	}
	if out == nil {
		out = []apiclient.TailoredResume{}
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	t, err := h.Svc.Get(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Remote(c, err, "failed to load tailored resume")
		return
	}
	respond.OK(c, t)
}

func (h *Handler) tailor(c *gin.Context) {
	var req tailorRequest
	if !forms.Bind(c, &req) {
		return
	}
	t, err := h.Svc.Tailor(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), req.ResumeID, req.JobID)
	if err != nil {
		respond.Remote(c, err, "failed to tailor resume")
		return
	}
	respond.Created(c, t)
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if !forms.Bind(c, &req) {
		return
	}
	t, err := h.Svc.Update(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), req.Content, req.Style)
	if err != nil {
		respond.Remote(c, err, "failed to update tailored resume")
		return
	}
	respond.OK(c, t)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Remote(c, err, "failed to delete tailored resume")
		return
	}
	respond.NoContent(c)
}
