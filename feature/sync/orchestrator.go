package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roster-manager/core/roblox"
	"roster-manager/core/utils"
	"roster-manager/feature/roster/models"

	"go.uber.org/zap"
)

// ErrSyncInProgress is returned when a full sync is requested while another
// pass is still running.
var ErrSyncInProgress = errors.New("a sync pass is already in progress")

// Store is the storage capability the orchestrator needs from the roster
// feature: querying the active roster and mappings, and committing a plan in
// one transaction.
type Store interface {
	ActiveMembers(ctx context.Context) ([]models.Member, error)
	ActiveRankMappings(ctx context.Context) ([]models.RankMapping, error)
	Apply(ctx context.Context, plan *Plan) error
}

// PushStatus is the outcome of a single-member push to the remote group.
type PushStatus string

const (
	// PushSkipped means a pull sync was in flight and the push was
	// short-circuited to a no-op.
	PushSkipped PushStatus = "skipped"
	// PushApplied means the remote write succeeded and was verified.
	PushApplied PushStatus = "applied"
	// PushUnverified means the remote write succeeded but could not be
	// verified by the follow-up read.
	PushUnverified PushStatus = "applied_unverified"
)

// Orchestrator owns the sync entry points: full reconciliation passes
// (manual, one-shot, or scheduled) and single-member pushes after local rank
// mutations.
type Orchestrator struct {
	client   roblox.Client
	store    Store
	guard    *Guard
	notifier *Notifier
	archiver *SnapshotArchiver
	logger   *zap.Logger
	cfg      Config

	now func() time.Time
}

// NewOrchestrator wires the orchestrator. notifier and archiver are optional
// and may be nil.
func NewOrchestrator(client roblox.Client, store Store, guard *Guard, notifier *Notifier, archiver *SnapshotArchiver, cfg Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		client:   client,
		store:    store,
		guard:    guard,
		notifier: notifier,
		archiver: archiver,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RunFullSync executes one remote-to-local reconciliation pass. With dryRun
// the statistics are computed exactly as a real run would but nothing is
// committed. A statistics object comes back on every path, including total
// failure; Success() on the result distinguishes clean runs.
func (o *Orchestrator) RunFullSync(ctx context.Context, dryRun bool) (result *Result, err error) {
	if !o.guard.BeginPull() {
		return nil, ErrSyncInProgress
	}
	defer o.guard.EndPull()

	started := o.now()
	result = &Result{Plan: &Plan{}, DryRun: dryRun, StartedAt: started}

	defer func() {
		// One bad record must not take down the scheduler; unexpected
		// panics degrade to a failed run with statistics attached.
		if r := recover(); r != nil {
			result.Stats.Errors++
			err = fmt.Errorf("sync pass panicked: %v", r)
			o.logger.Error("sync pass panicked", zap.Any("panic", r))
		}
		result.FinishedAt = o.now()
	}()

	o.logger.Info("starting sync pass", zap.Bool("dry_run", dryRun))

	mappings, err := o.store.ActiveRankMappings(ctx)
	if err != nil {
		result.Stats.Errors++
		return result, fmt.Errorf("loading rank mappings: %w", err)
	}
	translator := NewTranslator(mappings)

	remote, err := o.client.GroupMembers(ctx, o.cfg.MemberLimit)
	if err != nil {
		result.Stats.TotalRemote = len(remote)
		result.Stats.Errors++
		o.notifyFailure(fmt.Sprintf("remote roster fetch failed: %v", err))
		return result, fmt.Errorf("fetching remote roster: %w", err)
	}
	if len(remote) == 0 {
		// An empty roster is indistinguishable from a broken fetch; syncing
		// against it would flag every member as departed.
		result.Stats.Errors++
		return result, errors.New("remote roster fetch returned no members")
	}

	local, err := o.store.ActiveMembers(ctx)
	if err != nil {
		result.Stats.TotalRemote = len(remote)
		result.Stats.Errors++
		return result, fmt.Errorf("loading active members: %w", err)
	}

	engine := NewEngine(translator, o.logger)
	planned := engine.Plan(remote, local)
	planned.DryRun = dryRun
	planned.StartedAt = started
	result = planned

	if !dryRun && result.Plan.HasChanges() {
		if err := o.store.Apply(ctx, result.Plan); err != nil {
			result.Stats.Errors++
			return result, fmt.Errorf("applying sync plan: %w", err)
		}
	}

	o.logger.Info("sync pass completed",
		zap.Bool("dry_run", dryRun),
		zap.Int("total_remote", result.Stats.TotalRemote),
		zap.Int("eligible_remote", result.Stats.EligibleRemote),
		zap.Int("added", result.Stats.Added),
		zap.Int("updated", result.Stats.Updated),
		zap.Int("rank_changes", result.Stats.RankChanges),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Int("errors", result.Stats.Errors),
		zap.Int("potential_departures", len(result.PotentialDepartures)),
		zap.Int("collisions", len(result.Collisions)),
	)

	if !dryRun {
		if o.notifier != nil && o.notifier.Enabled() {
			// Out-of-band delivery; a slow or broken webhook must not hold
			// up or fail the pass.
			go o.notifier.SyncCompleted(result)
		}
		if o.archiver != nil {
			o.archiver.Archive(ctx, result)
		}
	}

	return result, nil
}

// RunOnce runs a single non-dry sync pass and reports the outcome.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	result, err := o.RunFullSync(ctx, false)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("sync completed with %d errors", result.Stats.Errors)
	}
	return nil
}

// RunPeriodic runs a sync immediately and then on every interval tick until
// the context is cancelled. Failures are logged and the schedule continues.
func (o *Orchestrator) RunPeriodic(ctx context.Context) {
	interval := o.cfg.Interval()
	o.logger.Info("starting sync scheduler", zap.Duration("interval", interval))

	if err := o.RunOnce(ctx); err != nil {
		o.logger.Error("scheduled sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			if err := o.RunOnce(ctx); err != nil {
				o.logger.Error("scheduled sync failed", zap.Error(err))
			}
		}
	}
}

// PushMemberRank pushes a member's current local rank to the remote group.
// It is called after local rank mutations (manual promotion, bulk edit) and
// short-circuits to a no-op while a pull sync is in flight.
func (o *Orchestrator) PushMemberRank(ctx context.Context, member *models.Member) (PushStatus, error) {
	if o.guard.Pulling() {
		o.logger.Info("skipping rank push, pull sync in flight",
			zap.String("handle", member.Handle),
		)
		return PushSkipped, nil
	}

	if member.RobloxID == "" {
		return "", fmt.Errorf("member %s has no linked remote account", member.Handle)
	}
	userID := utils.ToInt64(member.RobloxID)
	if userID <= 0 {
		return "", fmt.Errorf("member %s has an invalid remote user id %q", member.Handle, member.RobloxID)
	}

	roleID, ok, err := o.roleIDForRank(ctx, member.CurrentRank)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no role mapping configured for rank %q", member.CurrentRank)
	}

	status, err := o.client.UpdateMemberRole(ctx, userID, roleID)
	if err != nil {
		return "", err
	}
	if status == roblox.UpdateUnverified {
		o.logger.Warn("rank push applied but unverified",
			zap.String("handle", member.Handle),
			zap.String("rank", member.CurrentRank),
		)
		return PushUnverified, nil
	}

	o.logger.Info("pushed rank to remote group",
		zap.String("handle", member.Handle),
		zap.String("rank", member.CurrentRank),
	)
	return PushApplied, nil
}

// PushAddMember adds a member to the remote group at their current rank.
// When the member has no linked remote ID it is resolved from the username
// and set on the in-memory member; persisting it is the caller's decision.
func (o *Orchestrator) PushAddMember(ctx context.Context, member *models.Member) (PushStatus, error) {
	if o.guard.Pulling() {
		return PushSkipped, nil
	}

	if member.RobloxID == "" {
		if member.RobloxUsername == "" {
			return "", fmt.Errorf("member %s has no remote username to resolve", member.Handle)
		}
		userID, found, err := o.client.ResolveUserID(ctx, member.RobloxUsername)
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("remote user %q not found", member.RobloxUsername)
		}
		member.RobloxID = fmt.Sprintf("%d", userID)
	}

	roleID, ok, err := o.roleIDForRank(ctx, member.CurrentRank)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no role mapping configured for rank %q", member.CurrentRank)
	}

	if err := o.client.AddMember(ctx, utils.ToInt64(member.RobloxID), roleID); err != nil {
		return "", err
	}
	return PushApplied, nil
}

// PushRemoveMember removes a member from the remote group.
func (o *Orchestrator) PushRemoveMember(ctx context.Context, member *models.Member) (PushStatus, error) {
	if o.guard.Pulling() {
		return PushSkipped, nil
	}

	if member.RobloxID == "" {
		return "", fmt.Errorf("member %s has no linked remote account", member.Handle)
	}
	if err := o.client.RemoveMember(ctx, utils.ToInt64(member.RobloxID)); err != nil {
		return "", err
	}
	return PushApplied, nil
}

func (o *Orchestrator) roleIDForRank(ctx context.Context, rank string) (int64, bool, error) {
	mappings, err := o.store.ActiveRankMappings(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("loading rank mappings: %w", err)
	}
	roleID, ok := NewTranslator(mappings).LocalToRoleID(rank)
	return roleID, ok, nil
}

func (o *Orchestrator) notifyFailure(message string) {
	if o.notifier != nil && o.notifier.Enabled() {
		go o.notifier.SyncFailed(message)
	}
}
