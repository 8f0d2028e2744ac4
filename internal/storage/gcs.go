package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSClient implements StorageClient on a Cloud Storage bucket. Objects are
// stored under an optional prefix, one object per upload name.
type GCSClient struct {
	client     *storage.Client
	bucketName string
	prefix     string
}

// NewGCSClient uses the credentials file when given, otherwise application
// default credentials
func NewGCSClient(ctx context.Context, bucketName, projectID, credentialsPath, prefix string) (*GCSClient, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("GCS bucket name is required")
	}
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	log.Printf("[Storage] using gs://%s/%s (project %s)", bucketName, strings.Trim(prefix, "/"), projectID)
	return &GCSClient{
		client:     client,
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
	}, nil
}

func (g *GCSClient) object(name string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucketName).Object(path.Join(g.prefix, name))
}

func (g *GCSClient) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	name, err := ObjectName(objectName)
	if err != nil {
		return nil, err
	}

	writer := g.object(name).NewWriter(ctx)
	writer.ContentType = contentType
	size, err := io.Copy(writer, reader)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return &UploadResult{ObjectName: name, Size: size}, nil
}

func (g *GCSClient) DeleteFile(ctx context.Context, objectName string) error {
	name, err := ObjectName(objectName)
	if err != nil {
		return err
	}
	err = g.object(name).Delete(ctx)
	if err == nil || isGCSNotFound(err) {
		return nil
	}
	return fmt.Errorf("failed to delete GCS object %s: %w", name, err)
}

func (g *GCSClient) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	name, err := ObjectName(objectName)
	if err != nil {
		return nil, err
	}
	r, err := g.object(name).NewReader(ctx)
	if isGCSNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s: %w", name, err)
	}
	return r, nil
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}

func isGCSNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

var _ StorageClient = (*GCSClient)(nil)
