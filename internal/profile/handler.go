package profile

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"iris-backend/internal/llm"
	"iris-backend/internal/shared/server/respond"
	"iris-backend/internal/xmpmeta"
)

const maxUploadSize = 10 << 20 // 10MB

const maxEditSize = 1 << 20 // 1MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.open)
	rg.GET("/resumes/:id", h.get)
	rg.POST("/resumes/:id/extract", h.extract)
	rg.PUT("/resumes/:id/profile", h.edit)
	rg.POST("/resumes/:id/commit", h.commit)
	rg.GET("/resumes/:id/download", h.download)
	rg.DELETE("/resumes/:id", h.close)
}

func (h *Handler) open(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, CodeValidation, "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, CodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()

	sess, err := h.Svc.Open(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		case errors.Is(err, xmpmeta.ErrInvalidDocument):
			respond.Error(c, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, CodeInternal, "failed to open resume", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(sess))
}

func (h *Handler) get(c *gin.Context) {
	sess, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to fetch session")
		return
	}
	respond.OK(c, toResponse(sess))
}

func (h *Handler) extract(c *gin.Context) {
	sess, err := h.Svc.Extract(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to extract profile")
		return
	}
	respond.OK(c, toResponse(sess))
}

func (h *Handler) edit(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxEditSize))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, CodeValidation, "unable to read request body", nil)
		return
	}

	sess, err := h.Svc.Edit(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		h.fail(c, err, "failed to apply edit")
		return
	}
	respond.OK(c, toResponse(sess))
}

func (h *Handler) commit(c *gin.Context) {
	sess, err := h.Svc.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to commit profile")
		return
	}
	respond.OK(c, toResponse(sess))
}

func (h *Handler) download(c *gin.Context) {
	rc, fileName, err := h.Svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to download resume")
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) close(c *gin.Context) {
	if err := h.Svc.Close(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "failed to close session")
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps service errors onto the standardized error envelope.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, CodeNotFound, "session not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrInvalidEdit):
		respond.Error(c, http.StatusUnprocessableEntity, CodeInvalidEdit, err.Error(), nil)
	case errors.Is(err, ErrSessionSaved):
		respond.Error(c, http.StatusConflict, CodeSessionSaved, err.Error(), nil)
	case errors.Is(err, ErrRecordPresent), errors.Is(err, ErrNoRecord):
		respond.Error(c, http.StatusConflict, CodeConflict, err.Error(), nil)
	case errors.Is(err, ErrExtractionService):
		respond.Error(c, http.StatusBadGateway, CodeExtraction, err.Error(), nil)
	case errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, CodeUnavailable, err.Error(), nil)
	case errors.Is(err, xmpmeta.ErrDocumentWrite):
		respond.Error(c, http.StatusInternalServerError, CodeDocumentWrite, err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, CodeInternal, fallback, nil)
	}
}
