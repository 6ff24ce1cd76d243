package storage

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	apperrors "paperless/internal/errors"
)

// DefaultMaxUploadSize is the size ceiling for a single file.
const DefaultMaxUploadSize int64 = 10 << 20

// AllowedTypes are the accepted upload content types.
var AllowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Allowed reports whether mediaType may be uploaded.
func Allowed(mediaType string) bool {
	return slices.Contains(AllowedTypes, mediaType)
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// ResolveContentType returns the media type of an upload. The declared type
// is trusted unless it is missing or generic, in which case head (the first
// bytes of the file) is sniffed. Unlisted types are ErrUnsupportedType.
func ResolveContentType(declared string, head []byte) (string, error) {
	mediaType := ""
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			mediaType = strings.ToLower(mt)
		}
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = sniff(head)
	}
	if !Allowed(mediaType) {
		return "", apperrors.WithDetails(apperrors.ErrUnsupportedType,
			"invalid file type %q, only PDF, JPEG, PNG, DOC and DOCX are allowed", mediaType)
	}
	return mediaType, nil
}

func sniff(head []byte) string {
	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		if Allowed(m.String()) {
			return m.String()
		}
	}
	mt, _, _ := mime.ParseMediaType(detected.String())
	return mt
}

// GenerateName builds a stored file name that does not depend on the
// original name apart from a sanitised extension.
func GenerateName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + id + ext
}

// TitleFromFilename strips directories and the extension.
func TitleFromFilename(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Staged is a file written to storage whose record is not saved yet.
type Staged struct {
	Name        string
	Path        string
	Size        int64
	ContentType string

	store     Storage
	committed bool
}

// Commit marks the file as owned by a persisted record.
func (s *Staged) Commit() {
	s.committed = true
}

// Rollback removes the file unless it was committed.
func (s *Staged) Rollback(ctx context.Context) error {
	if s == nil || s.committed {
		return nil
	}
	return s.store.Remove(ctx, s.Name)
}

// Stage writes r to store under name. Reading more than limit bytes aborts
// the write with ErrFileTooLarge. A failed Put cleans up its own partial
// write; Stage never removes a name it did not create.
func Stage(ctx context.Context, store Storage, name string, r io.Reader, contentType string, limit int64) (*Staged, error) {
	cr := &cappedReader{r: r, limit: limit}
	path, err := store.Put(ctx, name, cr, contentType)
	if err != nil {
		return nil, err
	}
	return &Staged{
		Name:        name,
		Path:        path,
		Size:        cr.n,
		ContentType: contentType,
		store:       store,
	}, nil
}

type cappedReader struct {
	r     io.Reader
	limit int64
	n     int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.limit {
		return n, apperrors.WithDetails(apperrors.ErrFileTooLarge, "file size exceeds %d bytes", c.limit)
	}
	return n, err
}
