package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category classifies a document.
type Category string

const (
	CategoryInvoice  Category = "invoice"
	CategoryReceipt  Category = "receipt"
	CategoryContract Category = "contract"
	CategoryOther    Category = "other"
)

// Categories lists all accepted categories.
var Categories = []Category{CategoryInvoice, CategoryReceipt, CategoryContract, CategoryOther}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ApprovalStatus is the state of a document in the approval workflow.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ApprovalStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// IsDecision reports whether s is a status a boss may set.
func (s ApprovalStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Document is an uploaded file and its workflow state.
type Document struct {
	ID               uuid.UUID                   `json:"id" gorm:"type:char(36);primaryKey"`
	Title            string                      `json:"title" gorm:"size:255;not null"`
	FileName         string                      `json:"fileName" gorm:"uniqueIndex;size:255;not null"`
	FileType         string                      `json:"fileType" gorm:"size:255;not null"`
	FilePath         string                      `json:"filePath" gorm:"size:512;not null"`
	FileSize         int64                       `json:"fileSize" gorm:"not null"`
	Category         Category                    `json:"category" gorm:"size:20;not null;default:other;index"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	CreatedBy        uuid.UUID                   `json:"createdBy" gorm:"type:char(36);not null;index"`
	ApprovalStatus   ApprovalStatus              `json:"approvalStatus" gorm:"size:20;not null;default:pending;index"`
	ApprovedBy       *uuid.UUID                  `json:"approvedBy,omitempty" gorm:"type:char(36)"`
	ApprovalDate     *time.Time                  `json:"approvalDate,omitempty"`
	ApprovalComments string                      `json:"approvalComments,omitempty" gorm:"type:text"`
	PrintCount       int                         `json:"printCount" gorm:"not null;default:0"`
	LastPrintedAt    *time.Time                  `json:"lastPrintedAt,omitempty"`
	CreatedAt        time.Time                   `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// BeforeCreate assigns an id and fills defaults.
func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Category == "" {
		d.Category = CategoryOther
	}
	if d.ApprovalStatus == "" {
		d.ApprovalStatus = StatusPending
	}
	if d.Tags == nil {
		d.Tags = datatypes.JSONSlice[string]{}
	}
	return nil
}

// AfterFind keeps tags a list on the wire.
func (d *Document) AfterFind(*gorm.DB) error {
	if d.Tags == nil {
		d.Tags = datatypes.JSONSlice[string]{}
	}
	return nil
}

// OwnedBy reports whether userID created the document.
func (d *Document) OwnedBy(userID uuid.UUID) bool {
	return d.CreatedBy == userID
}
