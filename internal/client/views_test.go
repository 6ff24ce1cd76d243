package client

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless/internal/model"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{10 * 1024, "10 KB"},
		{1234567, "1.18 MB"},
		{10 << 20, "10 MB"},
		{3 << 30, "3 GB"},
		{2 << 40, "2048 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.in), tt.in)
	}
}

func TestNewDashboard(t *testing.T) {
	assert.Equal(t, Dashboard{Recent: []model.Document{}}, NewDashboard([]model.Document{}))

	docs := make([]model.Document, 7)
	for i := range docs {
		docs[i] = model.Document{ID: uuid.New(), Title: string(rune('a' + i)), FileSize: 100}
	}
	d := NewDashboard(docs)
	assert.Equal(t, 7, d.Total)
	assert.EqualValues(t, 700, d.TotalSize)
	require.Len(t, d.Recent, 5)
	assert.Equal(t, "a", d.Recent[0].Title, "listing is newest first")
	assert.Equal(t, "e", d.Recent[4].Title)
}

func TestRenderDashboard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, NewDashboard(nil)))
	assert.Contains(t, buf.String(), "Total documents:    0")
	assert.Contains(t, buf.String(), "No documents yet")

	buf.Reset()
	docs := []model.Document{{ID: uuid.New(), Title: "Invoice", FileSize: 10240, Category: model.CategoryOther, ApprovalStatus: model.StatusPending, CreatedAt: time.Now()}}
	require.NoError(t, RenderDashboard(&buf, NewDashboard(docs)))
	assert.Contains(t, buf.String(), "10 KB")
	assert.Contains(t, buf.String(), "Invoice")
	assert.Contains(t, buf.String(), "pending")
}

func TestRenderDocument(t *testing.T) {
	owner := employee()
	boss := &model.User{ID: uuid.New(), Role: model.RoleBoss}
	doc := &model.Document{
		ID:             uuid.New(),
		Title:          "Invoice",
		FileName:       "1-abc.pdf",
		FileType:       "application/pdf",
		FileSize:       2048,
		Category:       model.CategoryInvoice,
		CreatedBy:      owner.ID,
		ApprovalStatus: model.StatusPending,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderDocument(&buf, doc, boss))
	assert.Contains(t, buf.String(), "Awaiting decision")
	assert.Contains(t, buf.String(), "Tags:")

	buf.Reset()
	require.NoError(t, RenderDocument(&buf, doc, owner))
	assert.NotContains(t, buf.String(), "Awaiting decision")
	assert.NotContains(t, buf.String(), "Ready to print")

	now := time.Now()
	doc.ApprovalStatus = model.StatusApproved
	doc.ApprovalDate = &now
	doc.ApprovalComments = "fine"
	buf.Reset()
	require.NoError(t, RenderDocument(&buf, doc, owner))
	assert.Contains(t, buf.String(), "Ready to print")
	assert.Contains(t, buf.String(), "fine")

	buf.Reset()
	require.NoError(t, RenderDocument(&buf, doc, boss))
	assert.NotContains(t, buf.String(), "Awaiting decision")
}

func TestRenderUsers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderUsers(&buf, nil))
	assert.Contains(t, buf.String(), "No users found.")

	buf.Reset()
	require.NoError(t, RenderUsers(&buf, []model.User{*employee()}))
	assert.Contains(t, buf.String(), "alice@example.com")
	assert.Contains(t, buf.String(), "employee")
}
