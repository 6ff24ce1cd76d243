package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "paperless/internal/errors"
	"paperless/internal/model"
	"paperless/internal/service"
)

// DocumentHandler handles document endpoints.
type DocumentHandler struct {
	docs service.DocumentService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(docs service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// TagList accepts either a JSON array of strings or a comma separated string.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags must be a list or a comma separated string")
	}
	*t = service.ParseTags(raw)
	return nil
}

// UpdateDocumentRequest is a metadata edit. Omitted fields are unchanged.
type UpdateDocumentRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=255"`
	Category *string `json:"category" validate:"omitempty,oneof=invoice receipt contract other"`
	Tags     TagList `json:"tags"`
}

// ApproveRequest is a boss decision on a document.
type ApproveRequest struct {
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Comments string `json:"comments" validate:"max=2000"`
}

// DocumentResponse wraps a single document.
type DocumentResponse struct {
	Message  string          `json:"message,omitempty"`
	Document *model.Document `json:"document"`
}

// DocumentListResponse wraps a document listing.
type DocumentListResponse struct {
	Documents []model.Document `json:"documents"`
}

// PrintResponse is returned by a successful print.
type PrintResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Upload godoc
// @Summary Upload a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF, JPEG, PNG, DOC or DOCX, at most 10 MiB"
// @Param title formData string false "Title, defaults to the file name"
// @Param category formData string false "invoice, receipt, contract or other"
// @Param tags formData string false "Comma separated tags"
// @Success 201 {object} DocumentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/documents/upload [post]
func (h *DocumentHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return uploadErr(err)
	}
	f, err := fh.Open()
	if err != nil {
		return apperrors.Storage("open upload", err)
	}
	defer f.Close()

	doc, err := h.docs.Upload(c.Request().Context(), identity(c), service.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
		Title:       c.FormValue("title"),
		Category:    c.FormValue("category"),
		Tags:        c.FormValue("tags"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, DocumentResponse{Message: "Document uploaded successfully", Document: doc})
}

func uploadErr(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return apperrors.WithDetails(apperrors.ErrFileTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return apperrors.ErrNoFile
	default:
		return apperrors.WithDetails(apperrors.ErrValidation, "invalid multipart form")
	}
}

// List godoc
// @Summary List documents
// @Description Employees see their own documents. Bosses see all, or one user's with userId.
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param userId query string false "Owner filter, bosses only"
// @Param category query string false "Category filter"
// @Param status query string false "Approval status filter"
// @Success 200 {object} DocumentListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/documents [get]
func (h *DocumentHandler) List(c echo.Context) error {
	docs, err := h.docs.List(c.Request().Context(), identity(c), service.ListInput{
		UserID:   c.QueryParam("userId"),
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DocumentListResponse{Documents: docs})
}

// Get godoc
// @Summary Get a document
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} DocumentResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/documents/{id} [get]
func (h *DocumentHandler) Get(c echo.Context) error {
	doc, err := h.docs.Get(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DocumentResponse{Document: doc})
}

// Update godoc
// @Summary Edit document metadata
// @Tags documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param request body UpdateDocumentRequest true "Fields to change"
// @Success 200 {object} model.Document
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/documents/{id} [patch]
func (h *DocumentHandler) Update(c echo.Context) error {
	var req UpdateDocumentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	doc, err := h.docs.Update(c.Request().Context(), identity(c), c.Param("id"), service.UpdateInput{
		Title:    req.Title,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// Delete godoc
// @Summary Delete a document and its file
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c echo.Context) error {
	if err := h.docs.Delete(c.Request().Context(), identity(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Document deleted successfully"})
}

// Download godoc
// @Summary Download the document file
// @Tags documents
// @Produce application/octet-stream
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/documents/{id}/download [get]
func (h *DocumentHandler) Download(c echo.Context) error {
	content, err := h.docs.Download(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return err
	}
	defer content.Body.Close()

	doc := content.Document
	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.FileName))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(content.Size, 10))
	return c.Stream(http.StatusOK, doc.FileType, content.Body)
}

// Approve godoc
// @Summary Approve or reject a document
// @Tags documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param request body ApproveRequest true "Decision"
// @Success 200 {object} DocumentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/documents/{id}/approve [post]
func (h *DocumentHandler) Approve(c echo.Context) error {
	var req ApproveRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := c.Validate(&req); err != nil {
		return err
	}
	doc, err := h.docs.Approve(c.Request().Context(), identity(c), c.Param("id"), req.Status, req.Comments)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DocumentResponse{Document: doc})
}

// Print godoc
// @Summary Print an approved document
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} PrintResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/documents/{id}/print [get]
func (h *DocumentHandler) Print(c echo.Context) error {
	res, err := h.docs.Print(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PrintResponse{Message: res.Message, URL: res.URL})
}
