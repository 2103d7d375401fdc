// Package filestore keeps post attachments either inline in the post row or
// in an S3-compatible bucket.
package filestore

import (
	"context"
	"fmt"
	"time"

	"mungboard/internal/config"

	"github.com/google/uuid"
)

const (
	KindInline = "inline"
	KindS3     = "s3"
)

// Store persists attachment bytes outside the post row. An inline store keeps
// nothing itself and the caller writes the bytes into the row.
type Store interface {
	Inline() bool
	Put(ctx context.Context, key, contentType string, data []byte) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by ATTACHMENT_STORE.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.AttachmentStore {
	case KindInline, "":
		return InlineStore{}, nil
	case KindS3:
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unsupported ATTACHMENT_STORE %q", cfg.AttachmentStore)
	}
}

// NewKey returns a fresh object key for a post attachment of the given type.
func NewKey(fileType string) string {
	d := time.Now().UTC()
	key := fmt.Sprintf("posts/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.NewString())
	if fileType != "" {
		key += "." + fileType
	}
	return key
}

// InlineStore leaves attachments in the database row.
type InlineStore struct{}

func (InlineStore) Inline() bool { return true }

func (InlineStore) Put(context.Context, string, string, []byte) error { return nil }

func (InlineStore) URL(context.Context, string) (string, error) {
	return "", fmt.Errorf("inline attachments have no URL")
}

func (InlineStore) Delete(context.Context, string) error { return nil }
