package sync

import (
	"strconv"
	"strings"
	"time"

	"roster-manager/core/roblox"
	"roster-manager/feature/roster/models"

	"go.uber.org/zap"
)

const (
	syncActor  = "Roblox Sync"
	syncReason = "Automatic sync from Roblox group"
)

// Engine computes the storage mutations that bring the local roster into
// agreement with a freshly fetched remote roster. Planning is pure: the
// engine never touches storage or the network, which is what makes dry runs
// exact previews.
type Engine struct {
	translator *Translator
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine creates an Engine for one reconciliation pass.
func NewEngine(translator *Translator, logger *zap.Logger) *Engine {
	return &Engine{
		translator: translator,
		logger:     logger,
		now:        time.Now,
	}
}

// Plan walks the remote roster in fetch order and produces the mutation plan
// plus the statistics and review lists for the pass. Malformed remote
// records are counted as errors and skipped; they never abort the pass.
func (e *Engine) Plan(remote []roblox.Member, local []models.Member) *Result {
	result := &Result{Plan: &Plan{}}
	result.Stats.TotalRemote = len(remote)
	result.Stats.TotalLocalBefore = len(local)
	now := e.now()

	// remoteUsernames covers the whole fetched roster, eligible or not, so
	// the departure check below reflects everything the provider returned.
	remoteUsernames := make(map[string]struct{}, len(remote))

	byRemoteID := make(map[string]*models.Member, len(local))
	byRemoteUsername := make(map[string]*models.Member, len(local))
	for i := range local {
		m := &local[i]
		if m.RobloxID != "" {
			byRemoteID[m.RobloxID] = m
		}
		if m.RobloxUsername != "" {
			byRemoteUsername[strings.ToLower(m.RobloxUsername)] = m
		}
	}

	for _, rm := range remote {
		if rm.Username != "" {
			remoteUsernames[strings.ToLower(rm.Username)] = struct{}{}
		}

		if rm.Username == "" || rm.UserID <= 0 {
			e.logger.Warn("malformed remote roster record",
				zap.Int64("user_id", rm.UserID),
				zap.String("username", rm.Username),
			)
			result.Stats.Errors++
			continue
		}

		localRank := e.translator.RemoteToLocal(rm.RoleName)
		if !IsEligible(localRank) {
			result.Stats.Skipped++
			continue
		}
		result.Stats.EligibleRemote++

		remoteID := strconv.FormatInt(rm.UserID, 10)

		// The remote user ID is the stronger identity key; username matching
		// is the fallback for members whose ID was never linked.
		member := byRemoteID[remoteID]
		matchedByUsername := false
		if member == nil {
			member = byRemoteUsername[strings.ToLower(rm.Username)]
			matchedByUsername = member != nil
		}

		if member != nil && matchedByUsername && member.RobloxID != "" && member.RobloxID != remoteID {
			// Same username, different remote identity. Either two people
			// share a display name or the account changed; neither can be
			// resolved automatically.
			e.logger.Warn("sync collision, member left untouched",
				zap.String("username", rm.Username),
				zap.Int64("remote_user_id", rm.UserID),
				zap.String("handle", member.Handle),
				zap.String("linked_remote_id", member.RobloxID),
			)
			result.Collisions = append(result.Collisions, Collision{
				Username:         rm.Username,
				RemoteUserID:     rm.UserID,
				MemberID:         member.ID,
				Handle:           member.Handle,
				ExistingRemoteID: member.RobloxID,
			})
			continue
		}

		if member == nil {
			e.planCreate(result, rm, localRank, now)
			continue
		}
		e.planUpdate(result, member, rm, localRank, remoteID, now)
	}

	// Local members whose linked username was absent from the fetch. The
	// fetch can be incomplete (pagination failure, provider hiccup), so these
	// are surfaced only; auto-deactivation would risk mass false departures.
	for i := range local {
		m := &local[i]
		if m.RobloxUsername == "" {
			continue
		}
		if _, ok := remoteUsernames[strings.ToLower(m.RobloxUsername)]; !ok {
			result.PotentialDepartures = append(result.PotentialDepartures, Departure{
				Handle:         m.Handle,
				RobloxUsername: m.RobloxUsername,
				CurrentRank:    m.CurrentRank,
				LastUpdated:    m.LastUpdated,
			})
		}
	}

	return result
}

// planCreate stages a new local member seeded from the remote record. The
// handle starts as the remote username and is corrected when the member
// links their primary identity.
func (e *Engine) planCreate(result *Result, rm roblox.Member, localRank string, now time.Time) {
	result.Plan.Creates = append(result.Plan.Creates, models.Member{
		Handle:         rm.Username,
		RobloxUsername: rm.Username,
		RobloxID:       strconv.FormatInt(rm.UserID, 10),
		CurrentRank:    localRank,
		JoinDate:       now,
		LastUpdated:    now,
		IsActive:       true,
	})
	result.NewMembers = append(result.NewMembers, NewMember{
		Username:     rm.Username,
		Rank:         localRank,
		RemoteUserID: rm.UserID,
	})
	result.Stats.Added++

	e.logger.Info("new eligible member",
		zap.String("username", rm.Username),
		zap.String("rank", localRank),
	)
}

// planUpdate stages field updates for an existing member: link the remote ID
// if it was never set, follow a username change, and record a rank change
// with exactly one promotion audit entry.
func (e *Engine) planUpdate(result *Result, member *models.Member, rm roblox.Member, localRank, remoteID string, now time.Time) {
	fields := make(map[string]any)

	if member.RobloxID == "" {
		fields["roblox_id"] = remoteID
	}
	if member.RobloxUsername != rm.Username {
		fields["roblox_username"] = rm.Username
	}
	if member.CurrentRank != localRank {
		fields["current_rank"] = localRank
		result.Plan.Promotions = append(result.Plan.Promotions, models.PromotionLog{
			MemberID:      member.ID,
			FromRank:      member.CurrentRank,
			ToRank:        localRank,
			Reason:        syncReason,
			PromotedBy:    syncActor,
			PromotionDate: now,
		})
		result.RankChanges = append(result.RankChanges, RankChange{
			Handle:   member.Handle,
			FromRank: member.CurrentRank,
			ToRank:   localRank,
		})
		result.Stats.RankChanges++

		e.logger.Info("rank change detected",
			zap.String("handle", member.Handle),
			zap.String("from", member.CurrentRank),
			zap.String("to", localRank),
		)
	}

	if len(fields) == 0 {
		return
	}
	fields["last_updated"] = now
	result.Plan.Updates = append(result.Plan.Updates, MemberUpdate{
		MemberID: member.ID,
		Fields:   fields,
	})
	result.Stats.Updated++

	// Mirror the planned changes on the in-memory copy so later remote
	// entries and the departure check see the post-update state.
	member.RobloxID = remoteID
	member.RobloxUsername = rm.Username
	member.CurrentRank = localRank
	member.LastUpdated = now
}
