package sync

import "roster-manager/feature/roster/models"

// eligibleRanks is the ordered hierarchy of local ranks tracked by the
// roster, lowest tier first. Remote members whose translated rank is not in
// this hierarchy (e.g. the provider's default guest tier) are out of scope
// for sync: never created, never updated, never used to deactivate anyone.
var eligibleRanks = []string{
	"Aspirant", "Novice", "Adept", "Crusader", "Paladin",
	"Exemplar", "Prospect", "Commander", "Marshal", "General", "Chief General",
}

// defaultRoleRanks is the static fallback vocabulary used when no operator
// mapping matches a remote role name.
var defaultRoleRanks = map[string]string{
	"Aspirant":      "Aspirant",
	"Novice":        "Novice",
	"Adept":         "Adept",
	"Crusader":      "Crusader",
	"Paladin":       "Paladin",
	"Exemplar":      "Exemplar",
	"Prospect":      "Prospect",
	"Commander":     "Commander",
	"Marshal":       "Marshal",
	"General":       "General",
	"Chief General": "Chief General",

	// Common provider default roles.
	"Guest":  "Aspirant",
	"Member": "Novice",
}

// Translator converts between the remote provider's role vocabulary and the
// local rank vocabulary. It is pure: built once per sync pass from the
// operator-maintained mapping table and never mutated afterwards.
type Translator struct {
	roleToRank map[string]string
	rankToRole map[string]int64
}

// NewTranslator builds a Translator from the active rank mappings.
func NewTranslator(mappings []models.RankMapping) *Translator {
	t := &Translator{
		roleToRank: make(map[string]string, len(mappings)),
		rankToRole: make(map[string]int64, len(mappings)),
	}
	for _, m := range mappings {
		if !m.IsActive {
			continue
		}
		if m.RobloxRoleName != "" {
			t.roleToRank[m.RobloxRoleName] = m.SystemRank
		}
		t.rankToRole[m.SystemRank] = m.RobloxRoleID
	}
	return t
}

// RemoteToLocal translates a remote role name into a local rank. Lookup
// order: operator mapping, static fallback table, then the role name passed
// through unchanged so an operator can correct the mapping later.
func (t *Translator) RemoteToLocal(roleName string) string {
	if rank, ok := t.roleToRank[roleName]; ok {
		return rank
	}
	if rank, ok := defaultRoleRanks[roleName]; ok {
		return rank
	}
	return roleName
}

// LocalToRoleID returns the remote role ID configured for a local rank.
// Absence is a normal outcome: it means no sync target is configured for the
// rank, not an error.
func (t *Translator) LocalToRoleID(rank string) (int64, bool) {
	id, ok := t.rankToRole[rank]
	return id, ok
}

// IsEligible reports whether a local rank is in scope for roster sync.
func IsEligible(rank string) bool {
	for _, r := range eligibleRanks {
		if r == rank {
			return true
		}
	}
	return false
}

// EligibleRanks returns the tracked rank hierarchy, lowest tier first.
func EligibleRanks() []string {
	out := make([]string, len(eligibleRanks))
	copy(out, eligibleRanks)
	return out
}
