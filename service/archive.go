package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ravicodry/dastaavej/config"
)

// ArchiveService keeps an archival copy of every uploaded deed in object
// storage. It is optional and strictly best effort: an archive failure must
// never block or fail an analysis.
type ArchiveService struct {
	client *minio.Client
	bucket string
}

func NewArchiveService(cfg *config.ArchiveConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the archive bucket if it doesn't exist.
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Store archives one uploaded deed under deeds/<session>/<analysis>/<name>.
// Failures are logged and swallowed.
func (s *ArchiveService) Store(ctx context.Context, sessionID, fileName string, data []byte) {
	objectName := fmt.Sprintf("deeds/%s/%s/%s", sessionID, uuid.New().String(), fileName)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		slog.Warn("deed archive failed", "object", objectName, "error", err)
		return
	}

	slog.Debug("deed archived", "object", objectName, "size", len(data))
}
