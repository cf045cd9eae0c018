// Package blob stores quality-document attachments, primarily the
// certificate-of-analysis photos recorded with incoming checks.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete attachment backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory, development default
	DriverS3         Driver = "s3"     // S3 or MinIO bucket
	DriverMemory     Driver = "memory" // process memory, tests
)

// Errors shared across drivers. Callers match them with errors.Is.
var (
	ErrUnsupported = errors.New("blob: unsupported operation")
	ErrNotFound    = errors.New("blob: object not found")
	ErrExists      = errors.New("blob: object already exists")
)

// PutOptions carries optional attachment attributes recorded at upload.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string // small flat key-value set, e.g. lot number
}

// SignedURLOptions configures PresignURL. Only GET is needed by the quality
// core; drivers reject other methods with ErrUnsupported.
type SignedURLOptions struct {
	Method  string
	Expiry  time.Duration // default 15m
	Headers map[string]string
}

// Info describes one stored attachment.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the attachment port used by the quality core. Uploads are
// create-only: a COA photo is immutable once attached to a check, so Put
// fails with ErrExists rather than overwriting.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes an attachment, reporting (false, nil) when absent so
	// compensating cleanup stays idempotent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns attachments under the prefix, ordered by key ascending.
	List(ctx context.Context, prefix string) ([]Info, error)
	// PresignURL returns a time-limited GET URL for the key.
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
