package export

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
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

// RegisterRoutes attaches export routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/workshops/:id/export", h.workshop)
	rg.GET("/tailored/:id/export", h.tailored)
}

func (h *Handler) workshop(c *gin.Context) {
	f, ok := h.format(c)
	if !ok {
		return
	}
	file, err := h.Svc.Workshop(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.send(c, file)
}

func (h *Handler) tailored(c *gin.Context) {
	f, ok := h.format(c)
	if !ok {
		return
	}
	file, err := h.Svc.Tailored(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.send(c, file)
}

func (h *Handler) format(c *gin.Context) (Format, bool) {
	f, err := ParseFormat(c.DefaultQuery("format", string(FormatPDF)))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "format must be pdf, docx or txt", map[string]string{"format": c.Query("format")})
		return "", false
	}
	return f, true
}

func (h *Handler) send(c *gin.Context, file apiclient.ExportFile) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrUnsupportedFormat) {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	respond.Remote(c, err, "failed to export")
}
