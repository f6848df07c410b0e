package report

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Archiver stores a copy of a written report somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, name string, data []byte) (string, error)
}

// GCSArchiver uploads reports to a Cloud Storage bucket. Objects are
// write-once: an existing object with the same name is an error.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSArchiver creates a storage client using Application Default
// Credentials unless opts say otherwise.
func NewGCSArchiver(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectName is the object path a report named name is stored under.
func (a *GCSArchiver) ObjectName(name string) string {
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

func (a *GCSArchiver) Archive(ctx context.Context, name string, data []byte) (string, error) {
	objName := a.ObjectName(name)
	obj := a.client.Bucket(a.bucket).Object(objName)

	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "text/markdown; charset=utf-8"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", objName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", objName, err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, objName), nil
}

func (a *GCSArchiver) Close() error {
	return a.client.Close()
}
