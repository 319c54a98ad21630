package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roster-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// SnapshotArchiver writes the full result of each sync pass to object storage
// as a JSON document, giving every run a durable audit record beyond the
// summary in the logs.
type SnapshotArchiver struct {
	client storage.Client
	bucket string
	logger *zap.Logger

	now func() time.Time
}

// NewSnapshotArchiver creates an archiver writing into the given bucket.
func NewSnapshotArchiver(client storage.Client, bucket string, logger *zap.Logger) *SnapshotArchiver {
	return &SnapshotArchiver{
		client: client,
		bucket: bucket,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureBucket creates the snapshot bucket if it does not exist yet. Called
// once at startup.
func (a *SnapshotArchiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("checking snapshot bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating snapshot bucket: %w", err)
	}
	a.logger.Info("created snapshot bucket", zap.String("bucket", a.bucket))
	return nil
}

// Archive stores the result as a timestamped JSON object. Archival is best
// effort: failures are logged and never fail the sync pass.
func (a *SnapshotArchiver) Archive(ctx context.Context, result *Result) {
	if result == nil {
		return
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		a.logger.Error("failed to encode sync snapshot", zap.Error(err))
		return
	}

	objectName := fmt.Sprintf("snapshots/sync-%s.json", a.now().UTC().Format("20060102-150405"))
	_, err = a.client.PutObject(ctx, a.bucket, objectName,
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		a.logger.Warn("failed to archive sync snapshot",
			zap.String("object", objectName),
			zap.Error(err),
		)
		return
	}

	a.logger.Info("archived sync snapshot", zap.String("object", objectName))
}
