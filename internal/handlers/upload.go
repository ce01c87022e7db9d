package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/JAFletch-surg/dukes-club/internal/audit"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/storage"
	"github.com/gin-gonic/gin"
)

// MaxUploadSize caps a single image upload.
const MaxUploadSize = 5 << 20

// UploadHandler stores admin media uploads.
type UploadHandler struct {
	files storage.FileStorage
	audit *audit.Logger
}

// NewUploadHandler creates an UploadHandler. A nil FileStorage makes every
// upload fail with 503.
func NewUploadHandler(files storage.FileStorage, auditLogger *audit.Logger) *UploadHandler {
	return &UploadHandler{files: files, audit: auditLogger}
}

// Upload godoc
// @Summary Upload an image
// @Description Accepts a multipart image in "file" and an optional "folder" prefix.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image, 5MB or smaller"
// @Param folder formData string false "Key prefix" default(uploads)
// @Success 201 {object} DataResponse{data=storage.Object}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /admin/uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.files == nil {
		respondMessage(c, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "file is required")
		return
	}
	if header.Size > MaxUploadSize {
		respondMessage(c, http.StatusRequestEntityTooLarge, "file must be 5MB or smaller")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondMessage(c, http.StatusUnsupportedMediaType, "only image uploads are accepted")
		return
	}

	f, err := header.Open()
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "file could not be read")
		return
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "file could not be read")
		return
	}
	if len(body) == 0 {
		respondMessage(c, http.StatusBadRequest, storage.ErrEmptyFile.Error())
		return
	}

	obj, err := h.files.Upload(c.Request.Context(), c.DefaultPostForm("folder", "uploads"), header.Filename, contentType, body)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), audit.Entry{
		Action:       models.ActionUpload,
		UserID:       actorID(c),
		ResourceType: "media",
		ResourceID:   obj.Key,
	})
	c.JSON(http.StatusCreated, DataResponse{Data: obj})
}
