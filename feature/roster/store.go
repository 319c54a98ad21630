package roster

import (
	"context"
	"fmt"
	"time"

	"roster-manager/feature/roster/models"
	"roster-manager/feature/sync"

	"gorm.io/gorm"
)

// Store is the gorm-backed persistence layer for the roster. It also
// implements sync.Store so reconciliation passes commit through the same
// code path as the HTTP handlers.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new roster store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Members returns roster members, active only by default.
func (s *Store) Members(ctx context.Context, includeInactive bool) ([]models.Member, error) {
	var members []models.Member
	q := s.db.WithContext(ctx).Order("id")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	return members, q.Find(&members).Error
}

// ActiveMembers returns the active roster, the local side of a sync pass.
func (s *Store) ActiveMembers(ctx context.Context) ([]models.Member, error) {
	return s.Members(ctx, false)
}

// MemberByID fetches a single member.
func (s *Store) MemberByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// CreateMember inserts a new member, stamping the bookkeeping dates when the
// caller left them zero.
func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	now := time.Now()
	if member.JoinDate.IsZero() {
		member.JoinDate = now
	}
	if member.LastUpdated.IsZero() {
		member.LastUpdated = now
	}
	member.IsActive = true
	return s.db.WithContext(ctx).Create(member).Error
}

// UpdateMemberFields applies a partial update to a member.
func (s *Store) UpdateMemberFields(ctx context.Context, id uint, fields map[string]any) error {
	fields["last_updated"] = time.Now()
	return s.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).Updates(fields).Error
}

// DeactivateMember marks a member inactive. Rows are never deleted; the
// handle stays reserved and the audit trail stays intact.
func (s *Store) DeactivateMember(ctx context.Context, id uint) error {
	return s.UpdateMemberFields(ctx, id, map[string]any{"is_active": false})
}

// ChangeRank updates a member's rank and writes the promotion audit entry in
// the same transaction. The updated member is returned.
func (s *Store) ChangeRank(ctx context.Context, id uint, toRank, promotedBy, reason string) (*models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&member, id).Error; err != nil {
			return err
		}
		if member.CurrentRank == toRank {
			return fmt.Errorf("member %s already holds rank %q", member.Handle, toRank)
		}

		now := time.Now()
		if err := tx.Model(&member).Updates(map[string]any{
			"current_rank": toRank,
			"last_updated": now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.PromotionLog{
			MemberID:      member.ID,
			FromRank:      member.CurrentRank,
			ToRank:        toRank,
			Reason:        reason,
			PromotedBy:    promotedBy,
			PromotionDate: now,
		}).Error; err != nil {
			return err
		}

		member.CurrentRank = toRank
		member.LastUpdated = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// PromotionLogs returns a member's rank history, newest first.
func (s *Store) PromotionLogs(ctx context.Context, memberID uint) ([]models.PromotionLog, error) {
	var logs []models.PromotionLog
	err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("promotion_date DESC, id DESC").
		Find(&logs).Error
	return logs, err
}

// LogActivity appends an activity entry for a member.
func (s *Store) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	if entry.LogDate.IsZero() {
		entry.LogDate = time.Now()
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// ActivityLogs returns a member's activity entries, newest first.
func (s *Store) ActivityLogs(ctx context.Context, memberID uint) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("log_date DESC, id DESC").
		Find(&logs).Error
	return logs, err
}

// RankMappings returns all rank mappings, active and inactive.
func (s *Store) RankMappings(ctx context.Context) ([]models.RankMapping, error) {
	var mappings []models.RankMapping
	return mappings, s.db.WithContext(ctx).Order("id").Find(&mappings).Error
}

// ActiveRankMappings returns the mappings the sync translator is built from.
func (s *Store) ActiveRankMappings(ctx context.Context) ([]models.RankMapping, error) {
	var mappings []models.RankMapping
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&mappings).Error
	return mappings, err
}

// SaveRankMapping creates or updates the mapping for a system rank. A rank
// has at most one mapping, so an existing row is updated in place.
func (s *Store) SaveRankMapping(ctx context.Context, mapping *models.RankMapping) error {
	now := time.Now()
	var existing models.RankMapping
	err := s.db.WithContext(ctx).Where("system_rank = ?", mapping.SystemRank).First(&existing).Error
	switch {
	case err == nil:
		mapping.ID = existing.ID
		mapping.CreatedDate = existing.CreatedDate
		mapping.LastUpdated = now
		return s.db.WithContext(ctx).Save(mapping).Error
	case err == gorm.ErrRecordNotFound:
		mapping.CreatedDate = now
		mapping.LastUpdated = now
		return s.db.WithContext(ctx).Create(mapping).Error
	default:
		return err
	}
}

// DeleteRankMapping removes a mapping by ID.
func (s *Store) DeleteRankMapping(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.RankMapping{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Apply commits a reconciliation plan in a single transaction: either every
// staged mutation lands or none do.
func (s *Store) Apply(ctx context.Context, plan *sync.Plan) error {
	if plan == nil || !plan.HasChanges() {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range plan.Creates {
			if err := tx.Create(&plan.Creates[i]).Error; err != nil {
				return fmt.Errorf("creating member %s: %w", plan.Creates[i].Handle, err)
			}
		}
		for _, u := range plan.Updates {
			if err := tx.Model(&models.Member{}).Where("id = ?", u.MemberID).Updates(u.Fields).Error; err != nil {
				return fmt.Errorf("updating member %d: %w", u.MemberID, err)
			}
		}
		for i := range plan.Promotions {
			if err := tx.Create(&plan.Promotions[i]).Error; err != nil {
				return fmt.Errorf("logging promotion for member %d: %w", plan.Promotions[i].MemberID, err)
			}
		}
		return nil
	})
}
