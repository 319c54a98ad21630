package sync

import (
	"testing"

	"roster-manager/feature/roster/models"

	"github.com/stretchr/testify/assert"
)

func TestTranslatorLookupOrder(t *testing.T) {
	translator := NewTranslator([]models.RankMapping{
		{SystemRank: "Crusader", RobloxRoleID: 41, RobloxRoleName: "Knight", IsActive: true},
		{SystemRank: "Marshal", RobloxRoleID: 90, RobloxRoleName: "Warlord", IsActive: false},
	})

	// Operator mapping wins.
	assert.Equal(t, "Crusader", translator.RemoteToLocal("Knight"))
	// Inactive mappings are ignored, so the name passes through.
	assert.Equal(t, "Warlord", translator.RemoteToLocal("Warlord"))
	// Static fallback vocabulary.
	assert.Equal(t, "Aspirant", translator.RemoteToLocal("Guest"))
	assert.Equal(t, "Novice", translator.RemoteToLocal("Member"))
	// Unknown names pass through unchanged.
	assert.Equal(t, "Sellsword", translator.RemoteToLocal("Sellsword"))
}

func TestTranslatorLocalToRoleID(t *testing.T) {
	translator := NewTranslator([]models.RankMapping{
		{SystemRank: "Commander", RobloxRoleID: 73, IsActive: true},
		{SystemRank: "Marshal", RobloxRoleID: 90, IsActive: false},
	})

	id, ok := translator.LocalToRoleID("Commander")
	assert.True(t, ok)
	assert.Equal(t, int64(73), id)

	// Absence is a normal outcome, inactive included.
	_, ok = translator.LocalToRoleID("Marshal")
	assert.False(t, ok)
	_, ok = translator.LocalToRoleID("Aspirant")
	assert.False(t, ok)
}

func TestIsEligible(t *testing.T) {
	assert.True(t, IsEligible("Aspirant"))
	assert.True(t, IsEligible("Chief General"))
	assert.False(t, IsEligible("Sellsword"))
	assert.False(t, IsEligible(""))
}

func TestEligibleRanksIsACopy(t *testing.T) {
	ranks := EligibleRanks()
	ranks[0] = "Mutated"
	assert.Equal(t, "Aspirant", EligibleRanks()[0])
}
