package resumes

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/forms"
	"resume-dashboard/internal/shared/server/middleware"
	"resume-dashboard/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes", h.list)
	rg.POST("/resumes", h.create)
	rg.POST("/resumes/upload", h.upload)
	rg.GET("/resumes/:id", h.get)
	rg.PATCH("/resumes/:id", h.update)
	rg.DELETE("/resumes/:id", h.remove)
	rg.POST("/resumes/:id/master", h.master)
}

type createRequest struct {
	Title    string                   `json:"title" validate:"notblank,max=200"`
	RawText  string                   `json:"rawText" validate:"required_without=Content,max=100000"`
	Content  *apiclient.ResumeContent `json:"content"`
	IsMaster bool                     `json:"isMaster"`
}

type updateRequest struct {
	Title   *string                  `json:"title" validate:"omitnil,notblank,max=200"`
	Content *apiclient.ResumeContent `json:"content"`
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Svc.List(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c))
	if err != nil {
		h.fail(c, err, "failed to list resumes")
		return
	}
	if out == nil {
		out = []apiclient.Resume{}
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	r, err := h.Svc.Get(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load resume")
		return
	}
	respond.OK(c, r)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if !forms.Bind(c, &req) {
		return
	}
	r, err := h.Svc.Create(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), apiclient.ResumeInput{
		Title:    req.Title,
		RawText:  req.RawText,
		Content:  req.Content,
		IsMaster: req.IsMaster,
	})
	if err != nil {
		h.fail(c, err, "failed to create resume")
		return
	}
	respond.Created(c, r)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > maxUploadSize {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	isMaster, _ := strconv.ParseBool(c.PostForm("isMaster"))
	r, err := h.Svc.Upload(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c),
		c.PostForm("title"), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, isMaster)
	if err != nil {
		h.fail(c, err, "failed to upload resume")
		return
	}
	respond.Created(c, r)
}

func (h *Handler) update(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	var req updateRequest
	if !forms.Bind(c, &req) {
		return
	}
	r, err := h.Svc.Update(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"), apiclient.ResumeUpdate{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.fail(c, err, "failed to update resume")
		return
	}
	respond.OK(c, r)
}

func (h *Handler) master(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	r, err := h.Svc.SetMaster(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to set master resume")
		return
	}
	respond.OK(c, r)
}

func (h *Handler) remove(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), middleware.APIFromContext(c), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		h.fail(c, err, "failed to delete resume")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error, what string) {
	if errors.Is(err, ErrInvalidInput) {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	respond.Remote(c, err, what)
}
