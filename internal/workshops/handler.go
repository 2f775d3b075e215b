package workshops

import (
	"errors"
	"net/http"

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

// RegisterRoutes attaches workshop routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/workshops", h.list)
	rg.POST("/workshops", h.create)
	rg.GET("/workshops/:id", h.get)
	rg.DELETE("/workshops/:id", h.remove)
	rg.PUT("/workshops/:id/sections", h.updateSections)
	rg.POST("/workshops/:id/blocks", h.pullBlocks)
	rg.DELETE("/workshops/:id/blocks/:blockId", h.removeBlock)
	rg.POST("/workshops/:id/suggest", h.suggest)
	rg.POST("/workshops/:id/diffs/accept", h.acceptNow)
	rg.POST("/workshops/:id/diffs/reject", h.rejectNow)

	review := rg.Group("/workshops/:id/review")
	review.GET("", h.review)
	review.GET("/preview", h.preview)
	review.POST("/accept-all", h.decideAll(Accepted))
	review.POST("/reject-all", h.decideAll(Rejected))
	review.POST("/commit", h.commit)
	review.POST("/:sid/accept", h.decide(Accepted))
	review.POST("/:sid/reject", h.decide(Rejected))
	review.POST("/:sid/reset", h.decide(Pending))
}

type createRequest struct {
	JobID string `json:"jobId" validate:"notblank,max=64"`
}

type sectionsRequest struct {
	Sections     apiclient.ResumeContent `json:"sections"`
	SectionOrder []string                `json:"sectionOrder" validate:"omitempty,unique,dive,oneof=summary experience education skills projects certifications"`
}

type blocksRequest struct {
	BlockIDs []string `json:"blockIds" validate:"min=1,max=50,unique,dive,notblank"`
}

type suggestionsRequest struct {
	SuggestionIDs []string `json:"suggestionIds" validate:"min=1,unique,dive,notblank"`
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Svc.List(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err, "failed to list workshops")
		return
	}
	if out == nil {
		out = []apiclient.Workshop{}
	}
	respond.OK(c, out)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if !forms.Bind(c, &req) {
		return
	}
	w, err := h.Svc.Create(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), req.JobID)
	if err != nil {
		h.fail(c, err, "failed to create workshop")
		return
	}
	respond.Created(c, w)
}

func (h *Handler) get(c *gin.Context) {
	c.Set("workshopId", c.Param("id"))
	w, err := h.Svc.Get(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load workshop")
		return
	}
	respond.OK(c, w)
}

func (h *Handler) remove(c *gin.Context) {
	c.Set("workshopId", c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		h.fail(c, err, "failed to delete workshop")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) updateSections(c *gin.Context) {
	var req sectionsRequest
	if !forms.Bind(c, &req) {
		return
	}
	w, err := h.Svc.UpdateSections(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), req.Sections, req.SectionOrder)
	if err != nil {
		h.fail(c, err, "failed to update workshop")
		return
	}
	respond.OK(c, w)
}

func (h *Handler) pullBlocks(c *gin.Context) {
	var req blocksRequest
	if !forms.Bind(c, &req) {
		return
	}
	w, err := h.Svc.PullBlocks(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), req.BlockIDs)
	if err != nil {
		h.fail(c, err, "failed to pull blocks")
		return
	}
	respond.OK(c, w)
}

func (h *Handler) removeBlock(c *gin.Context) {
	w, err := h.Svc.RemoveBlock(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), c.Param("blockId"))
	if err != nil {
		h.fail(c, err, "failed to remove block")
		return
	}
	respond.OK(c, w)
}

func (h *Handler) suggest(c *gin.Context) {
	w, err := h.Svc.Suggest(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to generate suggestions")
		return
	}
	respond.OK(c, w)
}

func (h *Handler) acceptNow(c *gin.Context) {
	var req suggestionsRequest
	if !forms.Bind(c, &req) {
		return
	}
	w, err := h.Svc.AcceptNow(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), req.SuggestionIDs)
	if err != nil {
		h.fail(c, err, "failed to accept suggestions")
		return
	}
	respond.OK(c, w)
}

func (h *Handler) rejectNow(c *gin.Context) {
	var req suggestionsRequest
	if !forms.Bind(c, &req) {
		return
	}
	w, err := h.Svc.RejectNow(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), req.SuggestionIDs)
	if err != nil {
		h.fail(c, err, "failed to reject suggestions")
		return
	}
	respond.OK(c, w)
}

func (h *Handler) review(c *gin.Context) {
	c.Set("workshopId", c.Param("id"))
	out, err := h.Svc.Review(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load review")
		return
	}
	respond.OK(c, out)
}

func (h *Handler) decide(d Decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("workshopId", c.Param("id"))
		out, err := h.Svc.Decide(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), c.Param("sid"), d)
		if err != nil {
			h.fail(c, err, "failed to record decision")
			return
		}
		respond.OK(c, out)
	}
}

func (h *Handler) decideAll(d Decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("workshopId", c.Param("id"))
		out, err := h.Svc.DecideAll(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), d)
		if err != nil {
			h.fail(c, err, "failed to record decisions")
			return
		}
		respond.OK(c, out)
	}
}

func (h *Handler) preview(c *gin.Context) {
	c.Set("workshopId", c.Param("id"))
	out, err := h.Svc.Preview(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to build preview")
		return
	}
	respond.OK(c, out)
}

func (h *Handler) commit(c *gin.Context) {
	c.Set("workshopId", c.Param("id"))
	out, err := h.Svc.Commit(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to commit decisions")
		return
	}
	respond.OK(c, out)
}

func (h *Handler) fail(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, ErrSuggestionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrNothingToCommit):
		respond.Error(c, http.StatusConflict, "nothing_to_commit", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Remote(c, err, what)
	}
}
