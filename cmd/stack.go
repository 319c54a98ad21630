package cmd

import (
	"roster-manager/core/config"
	"roster-manager/core/roblox"
	"roster-manager/core/storage"
	"roster-manager/feature/roster"
	"roster-manager/feature/sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// buildSyncStack wires the sync orchestrator and its collaborators from
// configuration. The notifier and archiver stay nil when unconfigured.
func buildSyncStack(cfg *config.Config, logg *zap.Logger, db *gorm.DB) (*roster.Store, *sync.Orchestrator, error) {
	store := roster.NewStore(db)
	client := roblox.NewClient(cfg.Roblox, logg)

	var notifier *sync.Notifier
	if cfg.Sync.WebhookURL != "" {
		notifier = sync.NewNotifier(cfg.Sync.WebhookURL, logg)
	}

	var archiver *sync.SnapshotArchiver
	if cfg.Sync.SnapshotsEnabled {
		storageClient, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		archiver = sync.NewSnapshotArchiver(storageClient, cfg.Storage.Bucket, logg)
	}

	orchestrator := sync.NewOrchestrator(client, store, sync.NewGuard(), notifier, archiver, cfg.Sync, logg)
	return store, orchestrator, nil
}
