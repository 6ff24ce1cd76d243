package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paperless/internal/auth"
	apperrors "paperless/internal/errors"
	"paperless/internal/model"
	"paperless/internal/repository"
	"paperless/internal/storage"
)

// sniffLen is how much of an upload is inspected to detect its type.
const sniffLen = 3072

// UploadInput is one multipart upload. Title, Category and Tags are the raw
// form values and may be empty.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Title       string
	Category    string
	Tags        string
}

// ListInput carries the query filters of a document listing.
type ListInput struct {
	UserID   string
	Category string
	Status   string
}

// UpdateInput carries an edit. Nil fields are left unchanged.
type UpdateInput struct {
	Title    *string
	Category *string
	Tags     []string
}

// PrintResult is returned by a successful print.
type PrintResult struct {
	Message  string
	URL      string
	Document *model.Document
}

// FileContent is an open document file.
type FileContent struct {
	Document *model.Document
	Body     io.ReadCloser
	Size     int64
}

// DocumentService implements the document workflow.
type DocumentService interface {
	Upload(ctx context.Context, identity *auth.Identity, in UploadInput) (*model.Document, error)
	List(ctx context.Context, identity *auth.Identity, in ListInput) ([]model.Document, error)
	Get(ctx context.Context, identity *auth.Identity, id string) (*model.Document, error)
	Update(ctx context.Context, identity *auth.Identity, id string, in UpdateInput) (*model.Document, error)
	Delete(ctx context.Context, identity *auth.Identity, id string) error
	Download(ctx context.Context, identity *auth.Identity, id string) (*FileContent, error)
	OpenFile(ctx context.Context, identity *auth.Identity, fileName string) (*FileContent, error)
	Approve(ctx context.Context, identity *auth.Identity, id, status, comments string) (*model.Document, error)
	Print(ctx context.Context, identity *auth.Identity, id string) (*PrintResult, error)
}

type documentService struct {
	repo          repository.DocumentRepository
	store         storage.Storage
	maxUploadSize int64
	log           *zap.Logger
	now           func() time.Time
}

// NewDocumentService wires the document workflow.
func NewDocumentService(repo repository.DocumentRepository, store storage.Storage, maxUploadSize int64, log *zap.Logger) DocumentService {
	if maxUploadSize <= 0 {
		maxUploadSize = storage.DefaultMaxUploadSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{
		repo:          repo,
		store:         store,
		maxUploadSize: maxUploadSize,
		log:           log,
		now:           time.Now,
	}
}

// Upload validates the file, stages it in storage and inserts the record.
// If the insert fails the staged file is removed before returning.
func (s *documentService) Upload(ctx context.Context, identity *auth.Identity, in UploadInput) (*model.Document, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if in.Body == nil || in.Filename == "" {
		return nil, apperrors.ErrNoFile
	}
	if in.Size > s.maxUploadSize {
		return nil, apperrors.WithDetails(apperrors.ErrFileTooLarge, "file size exceeds %d bytes", s.maxUploadSize)
	}

	category := model.CategoryOther
	if c := strings.TrimSpace(in.Category); c != "" {
		category = model.Category(strings.ToLower(c))
		if !category.Valid() {
			return nil, apperrors.Validation("invalid category %q", c)
		}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperrors.Storage("read upload", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apperrors.WithDetails(apperrors.ErrNoFile, "uploaded file is empty")
	}
	contentType, err := storage.ResolveContentType(in.ContentType, head)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = storage.TitleFromFilename(in.Filename)
	}
	if title == "" {
		title = "untitled"
	}

	name := storage.GenerateName(in.Filename, s.now())
	body := io.MultiReader(bytes.NewReader(head), in.Body)
	staged, err := storage.Stage(ctx, s.store, name, body, contentType, s.maxUploadSize)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Title:          title,
		FileName:       staged.Name,
		FileType:       contentType,
		FilePath:       staged.Path,
		FileSize:       staged.Size,
		Category:       category,
		Tags:           ParseTags(in.Tags),
		CreatedBy:      identity.UserID,
		ApprovalStatus: model.StatusPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if rbErr := staged.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			s.log.Error("remove staged file", zap.String("file", staged.Name), zap.Error(rbErr))
		}
		return nil, apperrors.Storage("save document", err)
	}
	staged.Commit()
	return doc, nil
}

// List scopes non-boss callers to their own documents; userId is only
// honoured for bosses.
func (s *documentService) List(ctx context.Context, identity *auth.Identity, in ListInput) ([]model.Document, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	var filter repository.DocumentFilter

	if identity.IsBoss() {
		if in.UserID != "" {
			owner, err := uuid.Parse(in.UserID)
			if err != nil {
				return nil, apperrors.Validation("invalid userId %q", in.UserID)
			}
			filter.CreatedBy = &owner
		}
	} else {
		owner := identity.UserID
		filter.CreatedBy = &owner
	}

	if in.Category != "" {
		filter.Category = model.Category(strings.ToLower(in.Category))
		if !filter.Category.Valid() {
			return nil, apperrors.Validation("invalid category %q", in.Category)
		}
	}
	if in.Status != "" {
		filter.ApprovalStatus = model.ApprovalStatus(strings.ToLower(in.Status))
		if !filter.ApprovalStatus.Valid() {
			return nil, apperrors.Validation("invalid status %q", in.Status)
		}
	}

	return s.repo.List(ctx, filter)
}

// Get returns a document the caller may read. Anything else, including a
// malformed id, is ErrDocumentNotFound.
func (s *documentService) Get(ctx context.Context, identity *auth.Identity, id string) (*model.Document, error) {
	return s.find(ctx, identity, id, identity.CanRead)
}

func (s *documentService) Update(ctx context.Context, identity *auth.Identity, id string, in UpdateInput) (*model.Document, error) {
	doc, err := s.find(ctx, identity, id, identity.CanModify)
	if err != nil {
		return nil, err
	}

	var update repository.DocumentUpdate
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperrors.Validation("title must not be empty")
		}
		update.Title = &title
	}
	if in.Category != nil {
		category := model.Category(strings.ToLower(strings.TrimSpace(*in.Category)))
		if !category.Valid() {
			return nil, apperrors.Validation("invalid category %q", *in.Category)
		}
		update.Category = &category
	}
	if in.Tags != nil {
		update.Tags = cleanTags(in.Tags)
	}

	return s.repo.UpdateMetadata(ctx, doc.ID, update)
}

// Delete removes the record first. File removal afterwards is best effort.
func (s *documentService) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	doc, err := s.find(ctx, identity, id, identity.CanModify)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.store.Remove(context.WithoutCancel(ctx), doc.FileName); err != nil {
		s.log.Warn("remove document file", zap.String("document_id", doc.ID.String()),
			zap.String("file", doc.FileName), zap.Error(err))
	}
	return nil
}

func (s *documentService) Download(ctx context.Context, identity *auth.Identity, id string) (*FileContent, error) {
	doc, err := s.find(ctx, identity, id, identity.CanRead)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, doc)
}

// OpenFile serves /uploads/<fileName> with the same visibility as Download.
func (s *documentService) OpenFile(ctx context.Context, identity *auth.Identity, fileName string) (*FileContent, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	doc, err := s.repo.FindByFileName(ctx, fileName)
	if err != nil {
		return nil, err
	}
	if !identity.CanRead(doc.CreatedBy) {
		return nil, apperrors.ErrDocumentNotFound
	}
	return s.open(ctx, doc)
}

// OpenPublicFile serves a stored file without an ownership check.
func OpenPublicFile(ctx context.Context, store storage.Storage, fileName string) (*FileContent, error) {
	body, size, err := store.Open(ctx, fileName)
	if err != nil {
		return nil, err
	}
	return &FileContent{Body: body, Size: size}, nil
}

func (s *documentService) open(ctx context.Context, doc *model.Document) (*FileContent, error) {
	body, size, err := s.store.Open(ctx, doc.FileName)
	if err != nil {
		return nil, err
	}
	return &FileContent{Document: doc, Body: body, Size: size}, nil
}

// Approve records a boss decision. The document need not be owned by the
// boss, and a decision may be changed by approving again.
func (s *documentService) Approve(ctx context.Context, identity *auth.Identity, id, status, comments string) (*model.Document, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if !identity.IsBoss() {
		return nil, apperrors.ErrBossOnly
	}
	decision := model.ApprovalStatus(strings.ToLower(strings.TrimSpace(status)))
	if !decision.IsDecision() {
		return nil, apperrors.Validation("status must be approved or rejected")
	}
	docID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.SetApproval(ctx, docID, repository.Approval{
		Status:   decision,
		Approver: identity.UserID,
		Comments: strings.TrimSpace(comments),
		At:       s.now(),
	})
}

// Print counts a print of an approved document and returns its URL.
func (s *documentService) Print(ctx context.Context, identity *auth.Identity, id string) (*PrintResult, error) {
	doc, err := s.find(ctx, identity, id, identity.CanRead)
	if err != nil {
		return nil, err
	}
	if doc.ApprovalStatus != model.StatusApproved {
		return nil, apperrors.ErrNotApproved
	}

	printed, err := s.repo.IncrementPrint(ctx, doc.ID, s.now())
	if err != nil {
		return nil, err
	}
	url, err := s.store.URL(ctx, printed.FileName)
	if err != nil {
		return nil, err
	}
	return &PrintResult{
		Message:  "Document printed successfully",
		URL:      url,
		Document: printed,
	}, nil
}

func (s *documentService) find(ctx context.Context, identity *auth.Identity, id string, allowed func(uuid.UUID) bool) (*model.Document, error) {
	if identity == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	docID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	doc, err := s.repo.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !allowed(doc.CreatedBy) {
		return nil, apperrors.ErrDocumentNotFound
	}
	return doc, nil
}

func parseID(id string) (uuid.UUID, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad id", apperrors.ErrDocumentNotFound)
	}
	return docID, nil
}

// ParseTags splits a comma separated list, trimming blanks.
func ParseTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return cleanTags(strings.Split(raw, ","))
}

func cleanTags(in []string) []string {
	tags := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
