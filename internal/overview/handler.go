package overview

import (
	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches the overview route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/overview", h.get)
}

func (h *Handler) get(c *gin.Context) {
	out, err := h.Svc.Get(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Remote(c, err, "failed to load overview")
		return
	}
	respond.OK(c, out)
}
