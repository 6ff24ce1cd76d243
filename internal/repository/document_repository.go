package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "paperless/internal/errors"
	"paperless/internal/model"
)

// DocumentFilter narrows a document listing. Zero values match everything.
type DocumentFilter struct {
	CreatedBy      *uuid.UUID
	Category       model.Category
	ApprovalStatus model.ApprovalStatus
}

// DocumentUpdate carries the editable metadata. Nil fields are left as is.
type DocumentUpdate struct {
	Title    *string
	Category *model.Category
	Tags     []string
}

// Approval is the outcome of a boss decision.
type Approval struct {
	Status   model.ApprovalStatus
	Approver uuid.UUID
	Comments string
	At       time.Time
}

// DocumentRepository defines persistence operations for documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	FindByFileName(ctx context.Context, fileName string) (*model.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, update DocumentUpdate) (*model.Document, error)
	SetApproval(ctx context.Context, id uuid.UUID, approval Approval) (*model.Document, error)
	IncrementPrint(ctx context.Context, id uuid.UUID, at time.Time) (*model.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository builds a GORM-backed repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindByFileName(ctx context.Context, fileName string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("file_name = ?", fileName).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// List returns matching documents, newest first.
func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	q := r.db.WithContext(ctx).Model(&model.Document{})
	if filter.CreatedBy != nil {
		q = q.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.ApprovalStatus != "" {
		q = q.Where("approval_status = ?", filter.ApprovalStatus)
	}

	docs := []model.Document{}
	if err := q.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateMetadata applies the non-nil fields in a single UPDATE. Concurrent
// edits are last write wins.
func (r *documentRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, update DocumentUpdate) (*model.Document, error) {
	fields := map[string]any{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Category != nil {
		fields["category"] = *update.Category
	}
	if update.Tags != nil {
		fields["tags"] = datatypes.JSONSlice[string](update.Tags)
	}
	if len(fields) > 0 {
		err := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// SetApproval records status, approver, date and comments in one write.
func (r *documentRepository) SetApproval(ctx context.Context, id uuid.UUID, approval Approval) (*model.Document, error) {
	res := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(map[string]any{
		"approval_status":   approval.Status,
		"approved_by":       approval.Approver,
		"approval_date":     approval.At,
		"approval_comments": approval.Comments,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrDocumentNotFound
	}
	return r.FindByID(ctx, id)
}

// IncrementPrint bumps the print counter only if the document is approved.
// The status check and the increment are one conditional UPDATE.
func (r *documentRepository) IncrementPrint(ctx context.Context, id uuid.UUID, at time.Time) (*model.Document, error) {
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND approval_status = ?", id, model.StatusApproved).
		Updates(map[string]any{
			"print_count":     gorm.Expr("print_count + ?", 1),
			"last_printed_at": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrNotApproved
	}
	return r.FindByID(ctx, id)
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrDocumentNotFound
	}
	return nil
}
