package storage

import (
	"context"
	"io"
	"path"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores run artifacts in an object store.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

const reportsPrefix = "reports"

// ReportKey is the object key of a run's text report.
func ReportKey(runID string) string {
	return path.Join(reportsPrefix, runID+".txt")
}
