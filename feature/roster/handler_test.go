package roster

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"roster-manager/core/roblox"
	"roster-manager/core/roblox/mocks"
	"roster-manager/feature/roster/models"
	"roster-manager/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T, dbName string) (*fiber.App, *mocks.Client, *gorm.DB, *sync.Guard) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	db := setupTestDB(t, dbName)
	logger := zap.NewNop()

	store := NewStore(db)
	guard := sync.NewGuard()
	orchestrator := sync.NewOrchestrator(mockClient, store, guard, nil, nil, sync.Config{MemberLimit: 100}, logger)
	handler := NewHandler(NewService(store, orchestrator, logger))
	handler.RegisterRoutes(app)
	return app, mockClient, db, guard
}

func seedMember(t *testing.T, db *gorm.DB, member models.Member) models.Member {
	if member.JoinDate.IsZero() {
		member.JoinDate = time.Now()
	}
	if member.LastUpdated.IsZero() {
		member.LastUpdated = time.Now()
	}
	require.NoError(t, db.Create(&member).Error)
	return member
}

func TestHandleListRanks(t *testing.T) {
	app, _, _, _ := setupTestApp(t, "handler_ranks")

	resp, err := app.Test(httptest.NewRequest("GET", "/roster/ranks", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Ranks []string `json:"ranks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Aspirant", body.Ranks[0])
	assert.Equal(t, "Chief General", body.Ranks[len(body.Ranks)-1])
}

func TestHandleListMembersExcludesInactive(t *testing.T) {
	app, _, db, _ := setupTestApp(t, "handler_list")
	seedMember(t, db, models.Member{Handle: "ana", CurrentRank: "Crusader", IsActive: true})
	seedMember(t, db, models.Member{Handle: "gone", CurrentRank: "Novice", IsActive: false})

	resp, err := app.Test(httptest.NewRequest("GET", "/roster/members", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var members []models.Member
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
	require.Len(t, members, 1)
	assert.Equal(t, "ana", members[0].Handle)

	resp, err = app.Test(httptest.NewRequest("GET", "/roster/members?include_inactive=true", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
	assert.Len(t, members, 2)
}

func TestHandleCreateMember(t *testing.T) {
	app, _, db, _ := setupTestApp(t, "handler_create")

	body, _ := json.Marshal(map[string]any{
		"handle":          "faye",
		"roblox_username": "Faye",
		"current_rank":    "Crusader",
	})
	req := httptest.NewRequest("POST", "/roster/members", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var saved models.Member
	require.NoError(t, db.Where("handle = ?", "faye").First(&saved).Error)
	assert.Equal(t, "Crusader", saved.CurrentRank)
	assert.True(t, saved.IsActive)
}

func TestHandleCreateMemberRejectsUnknownRank(t *testing.T) {
	app, _, _, _ := setupTestApp(t, "handler_create_bad")

	body, _ := json.Marshal(map[string]any{"handle": "x", "current_rank": "Sellsword"})
	req := httptest.NewRequest("POST", "/roster/members", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleChangeRankPushesToRemote(t *testing.T) {
	app, mockClient, db, _ := setupTestApp(t, "handler_rank")
	member := seedMember(t, db, models.Member{
		Handle: "cleo", RobloxUsername: "Cleo", RobloxID: "300",
		CurrentRank: "Commander", IsActive: true,
	})
	require.NoError(t, db.Create(&models.RankMapping{
		SystemRank: "Marshal", RobloxRoleID: 90, IsActive: true,
	}).Error)

	mockClient.On("UpdateMemberRole", mock.Anything, int64(300), int64(90)).
		Return(roblox.UpdateApplied, nil)

	body, _ := json.Marshal(map[string]any{
		"rank": "Marshal", "promoted_by": "admin", "reason": "earned it",
	})
	req := httptest.NewRequest("POST", "/roster/members/1/rank", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var outcome RankChangeOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	assert.Equal(t, sync.PushApplied, outcome.Push)
	assert.Equal(t, "Marshal", outcome.Member.CurrentRank)

	logs := []models.PromotionLog{}
	db.Where("member_id = ?", member.ID).Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin", logs[0].PromotedBy)
	mockClient.AssertExpectations(t)
}

func TestHandleChangeRankUnknownMember(t *testing.T) {
	app, _, _, _ := setupTestApp(t, "handler_rank_404")

	body, _ := json.Marshal(map[string]any{"rank": "Marshal", "promoted_by": "admin"})
	req := httptest.NewRequest("POST", "/roster/members/99/rank", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleRunSyncDryRun(t *testing.T) {
	app, mockClient, db, _ := setupTestApp(t, "handler_sync")
	mockClient.On("GroupMembers", mock.Anything, 100).Return([]roblox.Member{
		{UserID: 101, Username: "Ana", RoleName: "Crusader"},
	}, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/roster/sync/run?dry_run=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result sync.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Stats.Added)

	// Nothing committed on a dry run.
	var count int64
	db.Model(&models.Member{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestHandleRunSyncConflict(t *testing.T) {
	app, _, _, guard := setupTestApp(t, "handler_sync_conflict")
	require.True(t, guard.BeginPull())
	defer guard.EndPull()

	resp, err := app.Test(httptest.NewRequest("POST", "/roster/sync/run", nil))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestHandleSaveRankMapping(t *testing.T) {
	app, _, db, _ := setupTestApp(t, "handler_mapping")

	body, _ := json.Marshal(map[string]any{
		"system_rank": "Marshal", "roblox_role_id": 90, "roblox_role_name": "Warlord",
	})
	req := httptest.NewRequest("POST", "/roster/rank-mappings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	var saved models.RankMapping
	require.NoError(t, db.Where("system_rank = ?", "Marshal").First(&saved).Error)
	assert.Equal(t, int64(90), saved.RobloxRoleID)
	assert.True(t, saved.IsActive)
}

func TestHandleSaveRankMappingRejectsUnknownRank(t *testing.T) {
	app, _, _, _ := setupTestApp(t, "handler_mapping_bad")

	body, _ := json.Marshal(map[string]any{"system_rank": "Sellsword", "roblox_role_id": 5})
	req := httptest.NewRequest("POST", "/roster/rank-mappings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleDeleteRankMappingMissing(t *testing.T) {
	app, _, _, _ := setupTestApp(t, "handler_mapping_delete")

	resp, err := app.Test(httptest.NewRequest("DELETE", "/roster/rank-mappings/42", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleLogActivity(t *testing.T) {
	app, _, db, _ := setupTestApp(t, "handler_activity")
	member := seedMember(t, db, models.Member{Handle: "ana", CurrentRank: "Crusader", IsActive: true})

	body, _ := json.Marshal(map[string]any{
		"activity_type": "event", "description": "hosted raid night", "logged_by": "admin",
	})
	req := httptest.NewRequest("POST", "/roster/members/1/activity", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	logs := []models.ActivityLog{}
	db.Where("member_id = ?", member.ID).Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "event", logs[0].ActivityType)
}
