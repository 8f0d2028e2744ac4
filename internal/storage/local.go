package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorageClient implements StorageClient on a single local directory
type LocalStorageClient struct {
	basePath string
}

// NewLocalStorageClient creates the upload directory if needed
func NewLocalStorageClient(basePath string) (*LocalStorageClient, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorageClient{basePath: basePath}, nil
}

// UploadFile writes the file through a temp file so readers never observe a
// partially written upload
func (l *LocalStorageClient) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	name, err := ObjectName(objectName)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(l.basePath, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write data to file: %w", err)
	}

	fullPath := filepath.Join(l.basePath, name)
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return nil, fmt.Errorf("failed to store file %s: %w", fullPath, err)
	}

	return &UploadResult{ObjectName: name, Size: size}, nil
}

// DeleteFile removes an upload; a missing file is not an error
func (l *LocalStorageClient) DeleteFile(ctx context.Context, objectName string) error {
	name, err := ObjectName(objectName)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(l.basePath, name)
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

func (l *LocalStorageClient) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	name, err := ObjectName(objectName)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(l.basePath, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	return file, nil
}

// GetBasePath returns the upload directory
func (l *LocalStorageClient) GetBasePath() string {
	return l.basePath
}

// Close is a no-op for local storage
func (l *LocalStorageClient) Close() error {
	return nil
}

var _ StorageClient = (*LocalStorageClient)(nil)
