package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/accountd/apiserver/types"
)

const (
	exportPrefix      = "exports/"
	exportContentType = "application/json"
)

// UserLister is the read side of UserRepository needed for exports.
type UserLister interface {
	ListAll(ctx context.Context) ([]types.User, error)
}

// ExportStorage is the subset of object storage used for exports.
type ExportStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// UserDirectory is the exported document.
type UserDirectory struct {
	ExportedAt time.Time    `json:"exported_at"`
	Count      int          `json:"count"`
	Users      []types.User `json:"users"`
}

// ExportService writes snapshots of the user table to object storage.
type ExportService struct {
	users   UserLister
	storage ExportStorage
	now     func() time.Time
}

func NewExportService(users UserLister, storage ExportStorage) *ExportService {
	return &ExportService{
		users:   users,
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Export uploads the current user directory and returns the object key.
func (s *ExportService) Export(ctx context.Context) (string, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return "", storeError("list users", err)
	}
	if users == nil {
		users = []types.User{}
	}

	exportedAt := s.now()
	payload, err := json.MarshalIndent(UserDirectory{
		ExportedAt: exportedAt,
		Count:      len(users),
		Users:      users,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := fmt.Sprintf("%susers-%s.json", exportPrefix, exportedAt.Format("20060102T150405Z"))
	if err := s.storage.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), exportContentType); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	return key, nil
}
