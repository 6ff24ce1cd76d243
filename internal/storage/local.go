package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "paperless/internal/errors"
)

// LocalStorage stores files in a directory on disk.
type LocalStorage struct {
	dir     string
	baseURL string
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage creates dir if needed. baseURL is the public server URL
// used to build /uploads links.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Storage("create upload dir", err)
	}
	return &LocalStorage{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the upload directory.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Put(_ context.Context, name string, r io.Reader, _ string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperrors.Storage("create file", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		if errors.Is(err, apperrors.ErrFileTooLarge) {
			return "", err
		}
		return "", apperrors.Storage("write file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", apperrors.Storage("close file", err)
	}
	return path, nil
}

func (s *LocalStorage) Open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	if err := validName(name); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, apperrors.ErrFileMissing
		}
		return nil, 0, apperrors.Storage("open file", err)
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, 0, apperrors.ErrFileMissing
	}
	return f, info.Size(), nil
}

func (s *LocalStorage) Remove(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Storage("remove file", err)
	}
	return nil
}

func (s *LocalStorage) URL(_ context.Context, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return s.baseURL + "/uploads/" + name, nil
}
