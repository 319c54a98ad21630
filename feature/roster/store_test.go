package roster

import (
	"context"
	"fmt"
	"testing"
	"time"

	"roster-manager/feature/roster/models"
	"roster-manager/feature/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite DB with the roster schema.
func setupTestDB(t *testing.T, dbName string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func TestApplyCommitsWholePlan(t *testing.T) {
	db := setupTestDB(t, "store_apply")
	store := NewStore(db)
	ctx := context.Background()

	seed := models.Member{
		Handle: "cleo", RobloxUsername: "Cleo", RobloxID: "300",
		CurrentRank: "Commander", JoinDate: time.Now(), LastUpdated: time.Now(), IsActive: true,
	}
	require.NoError(t, db.Create(&seed).Error)

	now := time.Now()
	plan := &sync.Plan{
		Creates: []models.Member{{
			Handle: "Ana", RobloxUsername: "Ana", RobloxID: "101",
			CurrentRank: "Crusader", JoinDate: now, LastUpdated: now, IsActive: true,
		}},
		Updates: []sync.MemberUpdate{{
			MemberID: seed.ID,
			Fields:   map[string]any{"current_rank": "Marshal", "last_updated": now},
		}},
		Promotions: []models.PromotionLog{{
			MemberID: seed.ID, FromRank: "Commander", ToRank: "Marshal",
			Reason: "Automatic sync from Roblox group", PromotedBy: "Roblox Sync", PromotionDate: now,
		}},
	}

	require.NoError(t, store.Apply(ctx, plan))

	members, err := store.ActiveMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)

	var cleo models.Member
	require.NoError(t, db.First(&cleo, seed.ID).Error)
	assert.Equal(t, "Marshal", cleo.CurrentRank)

	logs, err := store.PromotionLogs(ctx, seed.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Commander", logs[0].FromRank)
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t, "store_rollback")
	store := NewStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Member{
		Handle: "taken", CurrentRank: "Novice",
		JoinDate: time.Now(), LastUpdated: time.Now(), IsActive: true,
	}).Error)

	now := time.Now()
	plan := &sync.Plan{
		Creates: []models.Member{
			{Handle: "fresh", CurrentRank: "Aspirant", JoinDate: now, LastUpdated: now, IsActive: true},
			// Duplicate handle violates the unique index.
			{Handle: "taken", CurrentRank: "Aspirant", JoinDate: now, LastUpdated: now, IsActive: true},
		},
	}

	require.Error(t, store.Apply(ctx, plan))

	var count int64
	db.Model(&models.Member{}).Where("handle = ?", "fresh").Count(&count)
	assert.Equal(t, int64(0), count, "first create should have rolled back")
}

func TestApplyEmptyPlanIsNoOp(t *testing.T) {
	db := setupTestDB(t, "store_noop")
	store := NewStore(db)

	assert.NoError(t, store.Apply(context.Background(), nil))
	assert.NoError(t, store.Apply(context.Background(), &sync.Plan{}))
}

func TestChangeRankWritesAuditEntry(t *testing.T) {
	db := setupTestDB(t, "store_changerank")
	store := NewStore(db)
	ctx := context.Background()

	seed := models.Member{
		Handle: "eli", CurrentRank: "Prospect",
		JoinDate: time.Now(), LastUpdated: time.Now(), IsActive: true,
	}
	require.NoError(t, db.Create(&seed).Error)

	member, err := store.ChangeRank(ctx, seed.ID, "Commander", "admin", "field promotion")
	require.NoError(t, err)
	assert.Equal(t, "Commander", member.CurrentRank)

	logs, err := store.PromotionLogs(ctx, seed.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Prospect", logs[0].FromRank)
	assert.Equal(t, "Commander", logs[0].ToRank)
	assert.Equal(t, "admin", logs[0].PromotedBy)
	assert.Equal(t, "field promotion", logs[0].Reason)
}

func TestChangeRankRejectsSameRank(t *testing.T) {
	db := setupTestDB(t, "store_samerank")
	store := NewStore(db)

	seed := models.Member{
		Handle: "eli", CurrentRank: "Prospect",
		JoinDate: time.Now(), LastUpdated: time.Now(), IsActive: true,
	}
	require.NoError(t, db.Create(&seed).Error)

	_, err := store.ChangeRank(context.Background(), seed.ID, "Prospect", "admin", "")
	assert.Error(t, err)
}

func TestChangeRankMissingMember(t *testing.T) {
	db := setupTestDB(t, "store_missing")
	store := NewStore(db)

	_, err := store.ChangeRank(context.Background(), 999, "Commander", "admin", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeactivateMemberKeepsRow(t *testing.T) {
	db := setupTestDB(t, "store_deactivate")
	store := NewStore(db)
	ctx := context.Background()

	seed := models.Member{
		Handle: "gone", CurrentRank: "Novice",
		JoinDate: time.Now(), LastUpdated: time.Now(), IsActive: true,
	}
	require.NoError(t, db.Create(&seed).Error)

	require.NoError(t, store.DeactivateMember(ctx, seed.ID))

	active, err := store.ActiveMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := store.Members(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveRankMappingUpserts(t *testing.T) {
	db := setupTestDB(t, "store_mapping")
	store := NewStore(db)
	ctx := context.Background()

	first := &models.RankMapping{SystemRank: "Marshal", RobloxRoleID: 90, RobloxRoleName: "Warlord", IsActive: true}
	require.NoError(t, store.SaveRankMapping(ctx, first))

	// Saving the same rank again updates in place.
	second := &models.RankMapping{SystemRank: "Marshal", RobloxRoleID: 91, RobloxRoleName: "High Warlord", IsActive: true}
	require.NoError(t, store.SaveRankMapping(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	mappings, err := store.RankMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, int64(91), mappings[0].RobloxRoleID)
}

func TestActiveRankMappingsFiltersInactive(t *testing.T) {
	db := setupTestDB(t, "store_mapping_active")
	store := NewStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.RankMapping{SystemRank: "Marshal", RobloxRoleID: 90, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.RankMapping{SystemRank: "General", RobloxRoleID: 95, IsActive: false}).Error)

	active, err := store.ActiveRankMappings(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Marshal", active[0].SystemRank)
}

func TestDeleteRankMapping(t *testing.T) {
	db := setupTestDB(t, "store_mapping_delete")
	store := NewStore(db)
	ctx := context.Background()

	mapping := models.RankMapping{SystemRank: "Marshal", RobloxRoleID: 90, IsActive: true}
	require.NoError(t, db.Create(&mapping).Error)

	require.NoError(t, store.DeleteRankMapping(ctx, mapping.ID))
	assert.ErrorIs(t, store.DeleteRankMapping(ctx, mapping.ID), gorm.ErrRecordNotFound)
}
