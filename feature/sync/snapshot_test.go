package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"roster-manager/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArchiveWritesTimestampedObject(t *testing.T) {
	client := new(mocks.Client)
	archiver := NewSnapshotArchiver(client, "roster-reports", zap.NewNop())
	archiver.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 30, 45, 0, time.UTC)
	}

	client.On("PutObject", mock.Anything, "roster-reports",
		"snapshots/sync-20260830-123045.json",
		mock.Anything, mock.Anything, mock.Anything,
	).Return(minio.UploadInfo{}, nil)

	archiver.Archive(context.Background(), &Result{
		Stats: Stats{TotalRemote: 5, Added: 1},
	})

	client.AssertExpectations(t)
}

func TestArchiveSwallowsStorageFailures(t *testing.T) {
	client := new(mocks.Client)
	archiver := NewSnapshotArchiver(client, "roster-reports", zap.NewNop())

	client.On("PutObject", mock.Anything, "roster-reports",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything,
	).Return(minio.UploadInfo{}, errors.New("connection refused"))

	// Best effort: never panics, never propagates.
	archiver.Archive(context.Background(), &Result{})
	archiver.Archive(context.Background(), nil)
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	client := new(mocks.Client)
	archiver := NewSnapshotArchiver(client, "roster-reports", zap.NewNop())

	client.On("BucketExists", mock.Anything, "roster-reports").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "roster-reports", mock.Anything).Return(nil)

	require.NoError(t, archiver.EnsureBucket(context.Background()))
	client.AssertExpectations(t)
}

func TestEnsureBucketSkipsWhenPresent(t *testing.T) {
	client := new(mocks.Client)
	archiver := NewSnapshotArchiver(client, "roster-reports", zap.NewNop())

	client.On("BucketExists", mock.Anything, "roster-reports").Return(true, nil)

	require.NoError(t, archiver.EnsureBucket(context.Background()))
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureBucketPropagatesCheckError(t *testing.T) {
	client := new(mocks.Client)
	archiver := NewSnapshotArchiver(client, "roster-reports", zap.NewNop())

	client.On("BucketExists", mock.Anything, "roster-reports").
		Return(false, errors.New("unauthorized"))

	err := archiver.EnsureBucket(context.Background())
	assert.Error(t, err)
}
