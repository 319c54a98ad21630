package sync

import (
	"time"

	"roster-manager/feature/roster/models"
)

// Stats is the statistics summary for one reconciliation pass. It is created
// fresh per run and returned to the caller; the engine never persists it.
type Stats struct {
	// TotalRemote is the number of members fetched from the remote roster.
	TotalRemote int `json:"total_remote"`
	// EligibleRemote counts remote members whose translated rank is tracked.
	EligibleRemote int `json:"eligible_remote"`
	// TotalLocalBefore is the number of active local members before the pass.
	TotalLocalBefore int `json:"total_local_before"`
	// Added counts newly created local members.
	Added int `json:"added"`
	// Updated counts local members with at least one field change. A member
	// is counted once even when several fields changed.
	Updated int `json:"updated"`
	// RankChanges counts members whose rank changed (each with exactly one
	// promotion audit entry).
	RankChanges int `json:"rank_changes"`
	// Skipped counts remote members below the tracked rank hierarchy.
	Skipped int `json:"skipped"`
	// Errors counts per-member processing failures and run-level failures.
	Errors int `json:"errors"`
}

// MemberUpdate is one planned field update for an existing member.
type MemberUpdate struct {
	MemberID uint
	Fields   map[string]any
}

// Plan is the set of storage mutations one reconciliation pass wants to
// apply. The store commits the whole plan in a single transaction: either
// every mutation lands or none do.
type Plan struct {
	Creates    []models.Member
	Updates    []MemberUpdate
	Promotions []models.PromotionLog
}

// HasChanges reports whether the plan contains any mutation.
func (p *Plan) HasChanges() bool {
	return len(p.Creates) > 0 || len(p.Updates) > 0 || len(p.Promotions) > 0
}

// NewMember describes a member the pass created (or would create in a dry
// run).
type NewMember struct {
	Username     string `json:"username"`
	Rank         string `json:"rank"`
	RemoteUserID int64  `json:"remote_user_id"`
}

// RankChange describes one detected rank change.
type RankChange struct {
	Handle   string `json:"handle"`
	FromRank string `json:"from_rank"`
	ToRank   string `json:"to_rank"`
}

// Collision marks a remote member whose username matched a local member that
// is already linked to a different remote identity. Collisions are never
// auto-resolved; the local member is left untouched for operator review.
type Collision struct {
	Username         string `json:"username"`
	RemoteUserID     int64  `json:"remote_user_id"`
	MemberID         uint   `json:"member_id"`
	Handle           string `json:"handle"`
	ExistingRemoteID string `json:"existing_remote_id"`
}

// Departure marks a local member whose linked remote username was absent
// from the fetched roster. A fetch can be incomplete, so departures are
// surfaced for manual review and never auto-deactivated.
type Departure struct {
	Handle         string    `json:"handle"`
	RobloxUsername string    `json:"roblox_username"`
	CurrentRank    string    `json:"current_rank"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Result is the full outcome of one reconciliation pass. Partial results are
// always returned, even when the run fails outright.
type Result struct {
	Stats               Stats        `json:"stats"`
	NewMembers          []NewMember  `json:"new_members,omitempty"`
	RankChanges         []RankChange `json:"rank_changes,omitempty"`
	Collisions          []Collision  `json:"collisions,omitempty"`
	PotentialDepartures []Departure  `json:"potential_departures,omitempty"`
	DryRun              bool         `json:"dry_run"`
	StartedAt           time.Time    `json:"started_at"`
	FinishedAt          time.Time    `json:"finished_at"`

	// Plan carries the storage mutations backing the statistics. It is not
	// part of the serialized report.
	Plan *Plan `json:"-"`
}

// Success reports whether the run completed with zero errors. A run with
// zero changes is still a success.
func (r *Result) Success() bool {
	return r.Stats.Errors == 0
}
