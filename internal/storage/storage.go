package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by ReadFile when no upload has the given name
var ErrNotFound = errors.New("file not found")

// ErrInvalidName is returned for names that do not denote a single file
var ErrInvalidName = errors.New("invalid file name")

// StorageClient is the interface for uploaded document storage.
// Objects live in a flat namespace keyed by file name; a second upload with
// the same name replaces the first.
type StorageClient interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error)
	DeleteFile(ctx context.Context, objectName string) error
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	Close() error
}

// UploadResult contains the result of an upload operation
type UploadResult struct {
	ObjectName string `json:"object_name"`
	Size       int64  `json:"size"`
}

// ObjectName reduces a client-supplied file name to its base name so it can
// never escape the upload namespace
func ObjectName(filename string) (string, error) {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.TrimSpace(name) == "" {
		return "", ErrInvalidName
	}
	return name, nil
}
