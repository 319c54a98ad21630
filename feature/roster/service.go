package roster

import (
	"context"
	"fmt"
	"strings"

	"roster-manager/feature/roster/models"
	"roster-manager/feature/sync"

	"go.uber.org/zap"
)

// Service handles roster operations and keeps the remote group informed of
// local mutations.
type Service struct {
	store        *Store
	orchestrator *sync.Orchestrator
	logger       *zap.Logger
}

// NewService creates a new roster service.
func NewService(store *Store, orchestrator *sync.Orchestrator, logger *zap.Logger) *Service {
	return &Service{
		store:        store,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// RankChangeOutcome reports a local rank change plus the result of the
// follow-up push to the remote group. The local change is authoritative; a
// failed push is reported, not rolled back.
type RankChangeOutcome struct {
	Member    *models.Member  `json:"member"`
	Push      sync.PushStatus `json:"push"`
	PushError string          `json:"push_error,omitempty"`
}

// RunSync executes a full reconciliation pass.
func (s *Service) RunSync(ctx context.Context, dryRun bool) (*sync.Result, error) {
	return s.orchestrator.RunFullSync(ctx, dryRun)
}

// ListMembers returns the roster.
func (s *Service) ListMembers(ctx context.Context, includeInactive bool) ([]models.Member, error) {
	return s.store.Members(ctx, includeInactive)
}

// GetMember returns a single member.
func (s *Service) GetMember(ctx context.Context, id uint) (*models.Member, error) {
	return s.store.MemberByID(ctx, id)
}

// AddMember creates a roster member. With pushRemote the member is also added
// to the remote group at their rank; a resolved remote user ID is persisted.
func (s *Service) AddMember(ctx context.Context, member *models.Member, pushRemote bool) (sync.PushStatus, error) {
	member.Handle = strings.TrimSpace(member.Handle)
	if member.Handle == "" {
		return "", fmt.Errorf("handle is required")
	}
	if member.CurrentRank == "" {
		member.CurrentRank = sync.EligibleRanks()[0]
	}
	if !sync.IsEligible(member.CurrentRank) {
		return "", fmt.Errorf("unknown rank %q", member.CurrentRank)
	}

	if err := s.store.CreateMember(ctx, member); err != nil {
		return "", err
	}

	if !pushRemote {
		return sync.PushSkipped, nil
	}
	status, err := s.orchestrator.PushAddMember(ctx, member)
	if err != nil {
		s.logger.Warn("remote add failed after local create",
			zap.String("handle", member.Handle),
			zap.Error(err),
		)
		return "", err
	}
	if member.RobloxID != "" {
		// PushAddMember may have resolved the remote ID; persist it.
		if err := s.store.UpdateMemberFields(ctx, member.ID, map[string]any{"roblox_id": member.RobloxID}); err != nil {
			return status, err
		}
	}
	return status, nil
}

// ChangeMemberRank changes a member's rank locally and pushes the new rank to
// the remote group. The returned error covers the local mutation only; push
// failures land in the outcome.
func (s *Service) ChangeMemberRank(ctx context.Context, id uint, toRank, promotedBy, reason string) (*RankChangeOutcome, error) {
	if !sync.IsEligible(toRank) {
		return nil, fmt.Errorf("unknown rank %q", toRank)
	}
	if promotedBy == "" {
		return nil, fmt.Errorf("promoted_by is required")
	}

	member, err := s.store.ChangeRank(ctx, id, toRank, promotedBy, reason)
	if err != nil {
		return nil, err
	}

	outcome := &RankChangeOutcome{Member: member}
	status, pushErr := s.orchestrator.PushMemberRank(ctx, member)
	if pushErr != nil {
		s.logger.Warn("rank push failed after local change",
			zap.String("handle", member.Handle),
			zap.String("rank", toRank),
			zap.Error(pushErr),
		)
		outcome.PushError = pushErr.Error()
		return outcome, nil
	}
	outcome.Push = status
	return outcome, nil
}

// DeactivateMember marks a member inactive, optionally removing them from the
// remote group first.
func (s *Service) DeactivateMember(ctx context.Context, id uint, removeRemote bool) (sync.PushStatus, error) {
	member, err := s.store.MemberByID(ctx, id)
	if err != nil {
		return "", err
	}

	status := sync.PushSkipped
	if removeRemote && member.RobloxID != "" {
		status, err = s.orchestrator.PushRemoveMember(ctx, member)
		if err != nil {
			s.logger.Warn("remote removal failed, member left active",
				zap.String("handle", member.Handle),
				zap.Error(err),
			)
			return "", err
		}
	}

	if err := s.store.DeactivateMember(ctx, id); err != nil {
		return status, err
	}
	return status, nil
}

// MemberPromotions returns a member's rank history.
func (s *Service) MemberPromotions(ctx context.Context, id uint) ([]models.PromotionLog, error) {
	if _, err := s.store.MemberByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.PromotionLogs(ctx, id)
}

// LogActivity appends an activity entry for a member.
func (s *Service) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ActivityType == "" || entry.LoggedBy == "" {
		return fmt.Errorf("activity_type and logged_by are required")
	}
	if _, err := s.store.MemberByID(ctx, entry.MemberID); err != nil {
		return err
	}
	return s.store.LogActivity(ctx, entry)
}

// MemberActivity returns a member's activity entries.
func (s *Service) MemberActivity(ctx context.Context, id uint) ([]models.ActivityLog, error) {
	if _, err := s.store.MemberByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ActivityLogs(ctx, id)
}

// RankMappings returns all configured rank mappings.
func (s *Service) RankMappings(ctx context.Context) ([]models.RankMapping, error) {
	return s.store.RankMappings(ctx)
}

// SaveRankMapping creates or updates the mapping for a system rank.
func (s *Service) SaveRankMapping(ctx context.Context, mapping *models.RankMapping) error {
	if !sync.IsEligible(mapping.SystemRank) {
		return fmt.Errorf("unknown rank %q", mapping.SystemRank)
	}
	if mapping.RobloxRoleID <= 0 {
		return fmt.Errorf("roblox_role_id is required")
	}
	return s.store.SaveRankMapping(ctx, mapping)
}

// DeleteRankMapping removes a mapping by ID.
func (s *Service) DeleteRankMapping(ctx context.Context, id uint) error {
	return s.store.DeleteRankMapping(ctx, id)
}

// Ranks returns the tracked rank hierarchy, lowest tier first.
func (s *Service) Ranks() []string {
	return sync.EligibleRanks()
}
