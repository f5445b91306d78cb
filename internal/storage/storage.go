// Package storage archives uploaded resumes.
//
// Two backends implement Storage:
//   - LocalStorage writes under a directory, for development
//   - R2Storage writes to Cloudflare R2 through the S3 API
//
// Archiving is best effort from the caller's point of view: a failed upload
// is logged and the analysis continues.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage is an object store keyed by slash-separated paths.
type Storage interface {
	// Put stores data at key, replacing anything already there.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get returns the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string
	// MaxSize rejects data larger than this many bytes with ErrTooLarge.
	// Zero means no limit.
	MaxSize  int64
	Metadata map[string]string
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "./storage".
	BasePath string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// Region defaults to "auto".
	Region string
	// Endpoint overrides the account endpoint, for S3-compatible test servers.
	Endpoint string
}

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderR2 identifies the Cloudflare R2 storage provider.
	ProviderR2 = "r2"
)

// ResumeKey generates a storage key for an uploaded resume.
// Format: users/{userID}/job-infos/{jobInfoID}/resumes/{uuid}{ext}
func ResumeKey(userID string, jobInfoID uuid.UUID, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" || len(ext) > 5 {
		ext = ExtensionForContentType(contentType)
	}
	return fmt.Sprintf("users/%s/job-infos/%s/resumes/%s%s", sanitizeSegment(userID), jobInfoID, uuid.New(), ext)
}

// sanitizeSegment keeps a key segment from introducing path separators.
func sanitizeSegment(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "_"
	}
	return s
}

// validateKey rejects empty keys and keys that climb out of their root.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
