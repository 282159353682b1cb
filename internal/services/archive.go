package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const archivePrefix = "exports/"

// ErrInvalidArchiveKey is returned for keys outside the export prefix.
var ErrInvalidArchiveKey = errors.New("invalid archive key")

// ObjectStore is the subset of object storage used for export archives.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// ArchiveService keeps copies of spreadsheet exports in object storage.
type ArchiveService struct {
	institutions *InstitutionService
	objects      ObjectStore
	now          func() time.Time
}

func NewArchiveService(institutions *InstitutionService, objects ObjectStore) *ArchiveService {
	return &ArchiveService{institutions: institutions, objects: objects, now: time.Now}
}

// Archive exports the institutions matching term and uploads the workbook.
// It returns the object key.
func (s *ArchiveService) Archive(ctx context.Context, term string) (string, error) {
	var buf bytes.Buffer
	if _, err := s.institutions.Export(ctx, term, &buf); err != nil {
		return "", err
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%s%s/%s-%s", archivePrefix, now.Format("2006/01/02"), uuid.NewString(), ExportFilename(now))
	if err := s.objects.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), SpreadsheetContentType); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	return key, nil
}

// Open returns the archived workbook stored under key.
func (s *ArchiveService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	clean := path.Clean(key)
	if clean != key || !strings.HasPrefix(clean, archivePrefix) || strings.Contains(clean, "..") {
		return nil, ErrInvalidArchiveKey
	}
	return s.objects.Get(ctx, clean)
}
