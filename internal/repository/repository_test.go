package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"paperless/internal/db"
	apperrors "paperless/internal/errors"
	"paperless/internal/model"
)

type RepositorySuite struct {
	suite.Suite
	ctx   context.Context
	conn  *gorm.DB
	users UserRepository
	docs  DocumentRepository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	conn, err := db.Connect(s.ctx, db.Options{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate(conn))
	s.conn = conn
	s.users = NewUserRepository(conn)
	s.docs = NewDocumentRepository(conn)
}

func (s *RepositorySuite) TearDownTest() {
	if sqlDB, err := s.conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *RepositorySuite) newUser(username, email string) *model.User {
	u := &model.User{Username: username, Email: email, Department: "finance"}
	s.Require().NoError(u.SetPassword("password123"))
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *RepositorySuite) newDocument(owner uuid.UUID, title string) *model.Document {
	d := &model.Document{
		Title:     title,
		FileName:  uuid.NewString() + ".pdf",
		FileType:  "application/pdf",
		FilePath:  "uploads/" + title,
		FileSize:  10,
		CreatedBy: owner,
	}
	s.Require().NoError(s.docs.Create(s.ctx, d))
	return d
}

func (s *RepositorySuite) TestUser_CreateAndFind() {
	u := s.newUser("alice", "Alice@Example.com")

	found, err := s.users.FindByEmail(s.ctx, "ALICE@example.COM")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
	s.Equal("alice@example.com", found.Email)
	s.Equal(model.RoleEmployee, found.Role)
	s.True(found.Active)

	byID, err := s.users.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)
}

func (s *RepositorySuite) TestUser_DuplicateEmailIsConflict() {
	s.newUser("alice", "alice@example.com")

	dup := &model.User{Username: "alice2", Email: "ALICE@example.com", Department: "ops", PasswordHash: "x"}
	err := s.users.Create(s.ctx, dup)
	s.ErrorIs(err, apperrors.ErrUserAlreadyExists)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *RepositorySuite) TestUser_FindByEmailOrUsername() {
	u := s.newUser("alice", "alice@example.com")

	found, err := s.users.FindByEmailOrUsername(s.ctx, "other@example.com", "alice")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	_, err = s.users.FindByEmailOrUsername(s.ctx, "other@example.com", "bob")
	s.ErrorIs(err, apperrors.ErrUserNotFound)
}

func (s *RepositorySuite) TestUser_TouchLastLoginKeepsHash() {
	u := s.newUser("alice", "alice@example.com")
	at := time.Now().UTC().Truncate(time.Second)

	s.Require().NoError(s.users.TouchLastLogin(s.ctx, u.ID, at))

	found, err := s.users.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.LastLogin)
	s.WithinDuration(at, *found.LastLogin, time.Second)
	s.Equal(u.PasswordHash, found.PasswordHash)
	s.True(found.CheckPassword("password123"))

	s.ErrorIs(s.users.TouchLastLogin(s.ctx, uuid.New(), at), apperrors.ErrUserNotFound)
}

func (s *RepositorySuite) TestDocument_ListFilters() {
	alice := s.newUser("alice", "alice@example.com")
	bob := s.newUser("bob", "bob@example.com")
	s.newDocument(alice.ID, "first")
	time.Sleep(5 * time.Millisecond)
	second := s.newDocument(alice.ID, "second")
	s.newDocument(bob.ID, "third")

	all, err := s.docs.List(s.ctx, DocumentFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)

	mine, err := s.docs.List(s.ctx, DocumentFilter{CreatedBy: &alice.ID})
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(second.ID, mine[0].ID, "newest first")

	pending, err := s.docs.List(s.ctx, DocumentFilter{ApprovalStatus: model.StatusApproved})
	s.Require().NoError(err)
	s.Empty(pending)
	s.NotNil(pending)

	other, err := s.docs.List(s.ctx, DocumentFilter{Category: model.CategoryOther})
	s.Require().NoError(err)
	s.Len(other, 3)
}

func (s *RepositorySuite) TestDocument_FindByFileName() {
	alice := s.newUser("alice", "alice@example.com")
	d := s.newDocument(alice.ID, "scan")

	found, err := s.docs.FindByFileName(s.ctx, d.FileName)
	s.Require().NoError(err)
	s.Equal(d.ID, found.ID)

	_, err = s.docs.FindByFileName(s.ctx, "missing.pdf")
	s.ErrorIs(err, apperrors.ErrDocumentNotFound)
}

func (s *RepositorySuite) TestDocument_TagsNeverNull() {
	alice := s.newUser("alice", "alice@example.com")
	d := s.newDocument(alice.ID, "untagged")

	found, err := s.docs.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.NotNil(found.Tags)
	s.Empty(found.Tags)
}

func (s *RepositorySuite) TestDocument_UpdateMetadata() {
	alice := s.newUser("alice", "alice@example.com")
	d := s.newDocument(alice.ID, "draft")

	title := "Invoice 42"
	category := model.CategoryInvoice
	updated, err := s.docs.UpdateMetadata(s.ctx, d.ID, DocumentUpdate{
		Title:    &title,
		Category: &category,
		Tags:     []string{"q1", "acme"},
	})
	s.Require().NoError(err)
	s.Equal(title, updated.Title)
	s.Equal(category, updated.Category)
	s.Equal([]string{"q1", "acme"}, []string(updated.Tags))
	s.Equal(d.FileName, updated.FileName)
}

func (s *RepositorySuite) TestDocument_SetApproval() {
	alice := s.newUser("alice", "alice@example.com")
	boss := s.newUser("boss", "boss@example.com")
	d := s.newDocument(alice.ID, "contract")
	at := time.Now().UTC()

	updated, err := s.docs.SetApproval(s.ctx, d.ID, Approval{
		Status:   model.StatusApproved,
		Approver: boss.ID,
		Comments: "ok",
		At:       at,
	})
	s.Require().NoError(err)
	s.Equal(model.StatusApproved, updated.ApprovalStatus)
	s.Require().NotNil(updated.ApprovedBy)
	s.Equal(boss.ID, *updated.ApprovedBy)
	s.Equal("ok", updated.ApprovalComments)
	s.Require().NotNil(updated.ApprovalDate)

	_, err = s.docs.SetApproval(s.ctx, uuid.New(), Approval{Status: model.StatusRejected, Approver: boss.ID, At: at})
	s.ErrorIs(err, apperrors.ErrDocumentNotFound)
}

func (s *RepositorySuite) TestDocument_IncrementPrintRequiresApproval() {
	alice := s.newUser("alice", "alice@example.com")
	boss := s.newUser("boss", "boss@example.com")
	d := s.newDocument(alice.ID, "receipt")

	_, err := s.docs.IncrementPrint(s.ctx, d.ID, time.Now())
	s.ErrorIs(err, apperrors.ErrNotApproved)

	found, err := s.docs.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(0, found.PrintCount)
	s.Nil(found.LastPrintedAt)

	_, err = s.docs.SetApproval(s.ctx, d.ID, Approval{Status: model.StatusApproved, Approver: boss.ID, At: time.Now()})
	s.Require().NoError(err)

	printed, err := s.docs.IncrementPrint(s.ctx, d.ID, time.Now())
	s.Require().NoError(err)
	s.Equal(1, printed.PrintCount)
	s.NotNil(printed.LastPrintedAt)

	printed, err = s.docs.IncrementPrint(s.ctx, d.ID, time.Now())
	s.Require().NoError(err)
	s.Equal(2, printed.PrintCount)
	s.Equal(model.StatusApproved, printed.ApprovalStatus)

	_, err = s.docs.IncrementPrint(s.ctx, uuid.New(), time.Now())
	s.ErrorIs(err, apperrors.ErrDocumentNotFound)
}

func (s *RepositorySuite) TestDocument_Delete() {
	alice := s.newUser("alice", "alice@example.com")
	d := s.newDocument(alice.ID, "gone")

	s.Require().NoError(s.docs.Delete(s.ctx, d.ID))
	_, err := s.docs.FindByID(s.ctx, d.ID)
	s.ErrorIs(err, apperrors.ErrDocumentNotFound)
	s.ErrorIs(s.docs.Delete(s.ctx, d.ID), apperrors.ErrDocumentNotFound)
}
