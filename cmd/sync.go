package cmd

import (
	"context"
	"fmt"

	"roster-manager/core/config"
	"roster-manager/core/database"
	"roster-manager/core/logger"
	"roster-manager/core/roblox"
	"roster-manager/feature/roster/models"
	"roster-manager/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for sync run command
	dryRunSync bool
	limitSync  int
)

// syncCmd is the parent command for all sync operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the roster against the remote Roblox group",
	Long: `Sync operations compare the local roster against the remote group.
A run reports new members, rank changes, potential departures, and collisions.`,
}

// syncRunCmd performs one full reconciliation pass.
var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation pass (use --dry-run to preview)",
	Long: `Run one full reconciliation pass against the remote group.

Examples:
  # Preview without committing
  sync run --dry-run

  # Reconcile and commit
  sync run`,
	RunE: runSync,
}

// syncRolesCmd lists the remote group's roles, for configuring rank mappings.
var syncRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the remote group's roles",
	RunE:  runSyncRoles,
}

func init() {
	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncRolesCmd)

	syncRunCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Compute the plan without committing")
	syncRunCmd.Flags().IntVar(&limitSync, "limit", 0, "Cap the remote roster fetch (0 uses the configured limit)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	if !cfg.Roblox.IsConfigured() {
		return fmt.Errorf("no Roblox group configured (set ROBLOX_GROUP_ID)")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if limitSync > 0 {
		cfg.Sync.MemberLimit = limitSync
	}

	_, orchestrator, err := buildSyncStack(cfg, l, db)
	if err != nil {
		return fmt.Errorf("failed to build sync stack: %w", err)
	}

	result, err := orchestrator.RunFullSync(ctx, dryRunSync)
	if result != nil {
		printSyncReport(l, result)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if dryRunSync {
		l.Info("Dry-run mode: No changes were made.")
	}
	return nil
}

func runSyncRoles(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	if !cfg.Roblox.IsConfigured() {
		return fmt.Errorf("no Roblox group configured (set ROBLOX_GROUP_ID)")
	}

	client := roblox.NewClient(cfg.Roblox, l)
	roles, err := client.GroupRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch group roles: %w", err)
	}

	for _, role := range roles {
		l.Info("Group role",
			zap.Int64("id", role.ID),
			zap.String("name", role.Name),
			zap.Int("rank", role.Rank),
			zap.Int("member_count", role.MemberCount),
		)
	}
	return nil
}

// printSyncReport prints a formatted sync report using logger.
func printSyncReport(l *zap.Logger, result *sync.Result) {
	s := result.Stats

	l.Info("Sync report",
		zap.Bool("dry_run", result.DryRun),
		zap.Int("total_remote", s.TotalRemote),
		zap.Int("eligible_remote", s.EligibleRemote),
		zap.Int("total_local_before", s.TotalLocalBefore),
		zap.Int("added", s.Added),
		zap.Int("updated", s.Updated),
		zap.Int("rank_changes", s.RankChanges),
		zap.Int("skipped", s.Skipped),
		zap.Int("errors", s.Errors),
	)

	for _, m := range result.NewMembers {
		l.Info("New member", zap.String("username", m.Username), zap.String("rank", m.Rank))
	}
	for _, c := range result.RankChanges {
		l.Info("Rank change",
			zap.String("handle", c.Handle),
			zap.String("from", c.FromRank),
			zap.String("to", c.ToRank),
		)
	}
	for _, c := range result.Collisions {
		l.Warn("Collision needs review",
			zap.String("username", c.Username),
			zap.Int64("remote_user_id", c.RemoteUserID),
			zap.String("linked_remote_id", c.ExistingRemoteID),
		)
	}
	for _, d := range result.PotentialDepartures {
		l.Warn("Potential departure",
			zap.String("handle", d.Handle),
			zap.String("rank", d.CurrentRank),
		)
	}
}
