package handler

import (
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"

	"paperless/internal/service"
	"paperless/internal/storage"
)

// FileHandler serves stored files under /uploads.
type FileHandler struct {
	docs   service.DocumentService
	store  storage.Storage
	public bool
}

// NewFileHandler creates a file handler. When public is true files are
// served by name alone, without an ownership check.
func NewFileHandler(docs service.DocumentService, store storage.Storage, public bool) *FileHandler {
	return &FileHandler{docs: docs, store: store, public: public}
}

// Public reports whether /uploads bypasses authentication.
func (h *FileHandler) Public() bool {
	return h.public
}

// Serve godoc
// @Summary Fetch a stored file for inline preview
// @Tags files
// @Produce application/octet-stream
// @Security BearerAuth
// @Param fileName path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /uploads/{fileName} [get]
func (h *FileHandler) Serve(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("fileName")

	var (
		content *service.FileContent
		err     error
	)
	if h.public {
		content, err = service.OpenPublicFile(ctx, h.store, name)
	} else {
		content, err = h.docs.OpenFile(ctx, identity(c), name)
	}
	if err != nil {
		return err
	}
	defer content.Body.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if content.Document != nil {
		contentType = content.Document.FileType
	}
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	header := c.Response().Header()
	header.Set("Cross-Origin-Resource-Policy", "cross-origin")
	header.Set(echo.HeaderContentDisposition, "inline")
	header.Set(echo.HeaderContentLength, strconv.FormatInt(content.Size, 10))
	return c.Stream(http.StatusOK, contentType, content.Body)
}
