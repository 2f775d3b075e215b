package editor

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches editor routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/editor/resumes/:id")
	g.GET("", h.open)
	g.PATCH("/style", h.style)
	g.POST("/sections/move", h.move)
	g.PUT("/sections", h.reorder)
	g.POST("/sections/toggle", h.toggle)
	g.POST("/reset", h.reset)
	g.POST("/save", h.save)
}

type moveRequest struct {
	Section string `json:"section" validate:"notblank"`
	Delta   int    `json:"delta" validate:"ne=0,gte=-10,lte=10"`
}

type reorderRequest struct {
	Order []string `json:"order" validate:"min=1,unique,dive,notblank"`
}

type toggleRequest struct {
	Section string `json:"section" validate:"notblank"`
}

func (h *Handler) open(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	v, err := h.Svc.Open(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load resume")
		return
	}
	respond.OK(c, v)
}

func (h *Handler) style(c *gin.Context) {
	var req StylePatch
	if !forms.Bind(c, &req) {
		return
	}
	h.edit(c, func(e *Editor) error { return e.SetStyle(req) })
}

func (h *Handler) move(c *gin.Context) {
	var req moveRequest
	if !forms.Bind(c, &req) {
		return
	}
	h.edit(c, func(e *Editor) error { return e.MoveSection(req.Section, req.Delta) })
}

func (h *Handler) reorder(c *gin.Context) {
	var req reorderRequest
	if !forms.Bind(c, &req) {
		return
	}
	h.edit(c, func(e *Editor) error { return e.ReorderSections(req.Order) })
}

func (h *Handler) toggle(c *gin.Context) {
	var req toggleRequest
	if !forms.Bind(c, &req) {
		return
	}
	h.edit(c, func(e *Editor) error { return e.ToggleSection(req.Section) })
}

func (h *Handler) reset(c *gin.Context) {
	h.edit(c, func(e *Editor) error { return e.Reset() })
}

func (h *Handler) edit(c *gin.Context, fn func(*Editor) error) {
	c.Set("resumeId", c.Param("id"))
	v, err := h.Svc.Edit(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), fn)
	if err != nil {
		h.fail(c, err, "failed to update editor")
		return
	}
	respond.OK(c, v)
}

func (h *Handler) save(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	v, err := h.Svc.Save(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to save resume")
		return
	}
	respond.OK(c, v)
}

func (h *Handler) fail(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, ErrSaveInFlight):
		respond.Error(c, http.StatusConflict, "save_in_progress", err.Error(), nil)
	case errors.Is(err, ErrUnknownSection), errors.Is(err, ErrInvalidOrder), errors.Is(err, ErrInvalidStyle),
		errors.Is(err, ErrLastSection):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Remote(c, err, what)
	}
}
