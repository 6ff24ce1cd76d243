package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "paperless/internal/errors"
)

var pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

func newLocal(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStorage(dir, "http://localhost:4000")
	require.NoError(t, err)
	return store, dir
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestLocalStorage_PutOpenRemove(t *testing.T) {
	store, dir := newLocal(t)
	ctx := context.Background()

	path, err := store.Put(ctx, "a.pdf", bytes.NewReader(pdfHeader), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), path)

	rc, size, err := store.Open(ctx, "a.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, pdfHeader, data)
	assert.Equal(t, int64(len(pdfHeader)), size)

	url, err := store.URL(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/uploads/a.pdf", url)

	require.NoError(t, store.Remove(ctx, "a.pdf"))
	require.NoError(t, store.Remove(ctx, "a.pdf"), "removing twice is fine")
	_, _, err = store.Open(ctx, "a.pdf")
	assert.ErrorIs(t, err, apperrors.ErrFileMissing)
}

func TestLocalStorage_RefusesOverwrite(t *testing.T) {
	store, _ := newLocal(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "a.pdf", bytes.NewReader(pdfHeader), "application/pdf")
	require.NoError(t, err)
	_, err = store.Put(ctx, "a.pdf", strings.NewReader("other"), "application/pdf")
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestStage_NameCollisionKeepsExistingFile(t *testing.T) {
	store, dir := newLocal(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "a.pdf", bytes.NewReader(pdfHeader), "application/pdf")
	require.NoError(t, err)

	staged, err := Stage(ctx, store, "a.pdf", strings.NewReader("other"), "application/pdf", 1024)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
	assert.Nil(t, staged)

	data, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfHeader, data)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	store, _ := newLocal(t)
	ctx := context.Background()

	for _, name := range []string{"../escape.pdf", "a/b.pdf", `..\x.pdf`, "..", ""} {
		_, err := store.Put(ctx, name, strings.NewReader("x"), "application/pdf")
		assert.Error(t, err, name)
		_, _, err = store.Open(ctx, name)
		assert.ErrorIs(t, err, apperrors.ErrFileMissing, name)
	}
}

func TestStage_TooLargeLeavesNothing(t *testing.T) {
	store, dir := newLocal(t)

	_, err := Stage(context.Background(), store, "big.pdf", bytes.NewReader(make([]byte, 2048)), "application/pdf", 1024)
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
	assert.Equal(t, 0, countFiles(t, dir))
}

func TestStage_RollbackAndCommit(t *testing.T) {
	store, dir := newLocal(t)
	ctx := context.Background()

	staged, err := Stage(ctx, store, "one.pdf", bytes.NewReader(pdfHeader), "application/pdf", 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(len(pdfHeader)), staged.Size)
	assert.Equal(t, 1, countFiles(t, dir))

	require.NoError(t, staged.Rollback(ctx))
	assert.Equal(t, 0, countFiles(t, dir))

	kept, err := Stage(ctx, store, "two.pdf", bytes.NewReader(pdfHeader), "application/pdf", 1024)
	require.NoError(t, err)
	kept.Commit()
	require.NoError(t, kept.Rollback(ctx))
	assert.Equal(t, 1, countFiles(t, dir))
}

func TestStage_ExactlyAtLimit(t *testing.T) {
	store, _ := newLocal(t)

	staged, err := Stage(context.Background(), store, "edge.pdf", bytes.NewReader(make([]byte, 1024)), "application/pdf", 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), staged.Size)
}

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		head     []byte
		want     string
		wantErr  bool
	}{
		{name: "declared pdf", declared: "application/pdf", want: "application/pdf"},
		{name: "declared with params", declared: "image/PNG; charset=binary", want: "image/png"},
		{name: "docx", declared: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", want: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{name: "sniffed when generic", declared: "application/octet-stream", head: pdfHeader, want: "application/pdf"},
		{name: "sniffed when empty", head: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"), want: "image/png"},
		{name: "text rejected", declared: "text/plain", wantErr: true},
		{name: "sniffed text rejected", head: []byte("hello world"), wantErr: true},
		{name: "gif rejected", declared: "image/gif", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveContentType(tt.declared, tt.head)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	pattern := regexp.MustCompile(`^1700000000123-[0-9a-f]{32}(\.[a-z0-9]+)?$`)

	a := GenerateName("Invoice March.PDF", now)
	b := GenerateName("Invoice March.PDF", now)
	assert.Regexp(t, pattern, a)
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.NotEqual(t, a, b)

	evil := GenerateName("../../etc/passwd", now)
	assert.Regexp(t, pattern, evil)
	assert.NotContains(t, evil, "/")

	weird := GenerateName("x.p df", now)
	assert.Regexp(t, `^1700000000123-[0-9a-f]{32}$`, weird)
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "Invoice", TitleFromFilename("Invoice.pdf"))
	assert.Equal(t, "report.final", TitleFromFilename("report.final.docx"))
	assert.Equal(t, "scan", TitleFromFilename(`C:\Users\me\scan.png`))
	assert.Equal(t, "noext", TitleFromFilename("noext"))
}

func TestS3Storage_PresignedURL(t *testing.T) {
	store, err := NewS3Storage(context.Background(), S3Options{
		Bucket:    "paperless",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:4566",
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)

	url, err := store.URL(context.Background(), "1700000000123-abc.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:4566/paperless/1700000000123-abc.pdf")
	assert.Contains(t, url, "X-Amz-Signature=")

	_, err = store.URL(context.Background(), "../x")
	assert.Error(t, err)
}
