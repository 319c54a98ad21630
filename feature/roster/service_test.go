package roster

import (
	"context"
	"testing"

	"roster-manager/core/roblox/mocks"
	"roster-manager/feature/roster/models"
	"roster-manager/feature/sync"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing query shapes against the
// production MySQL dialect.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func setupMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	db, sqlMock := setupMockDB(t)
	store := NewStore(db)
	orchestrator := sync.NewOrchestrator(new(mocks.Client), store, sync.NewGuard(), nil, nil, sync.Config{}, zap.NewNop())
	return NewService(store, orchestrator, zap.NewNop()), sqlMock
}

func TestServiceListMembersQueriesActiveOnly(t *testing.T) {
	svc, sqlMock := setupMockService(t)

	rows := sqlmock.NewRows([]string{"id", "handle", "current_rank", "is_active"}).
		AddRow(1, "ana", "Crusader", true)
	sqlMock.ExpectQuery("SELECT \\* FROM `members` WHERE is_active = \\?").WillReturnRows(rows)

	members, err := svc.ListMembers(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "ana", members[0].Handle)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestServiceListMembersPropagatesErrors(t *testing.T) {
	svc, sqlMock := setupMockService(t)

	sqlMock.ExpectQuery(".*").WillReturnError(gorm.ErrInvalidDB)

	_, err := svc.ListMembers(context.Background(), true)
	assert.Error(t, err)
}

func TestServiceGetMemberNotFound(t *testing.T) {
	svc, sqlMock := setupMockService(t)

	sqlMock.ExpectQuery(".*").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.GetMember(context.Background(), 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestServiceChangeMemberRankValidation(t *testing.T) {
	svc, _ := setupMockService(t)

	_, err := svc.ChangeMemberRank(context.Background(), 1, "Sellsword", "admin", "")
	assert.ErrorContains(t, err, "unknown rank")

	_, err = svc.ChangeMemberRank(context.Background(), 1, "Marshal", "", "")
	assert.ErrorContains(t, err, "promoted_by is required")
}

func TestServiceSaveRankMappingValidation(t *testing.T) {
	svc, _ := setupMockService(t)

	err := svc.SaveRankMapping(context.Background(), &models.RankMapping{SystemRank: "Sellsword", RobloxRoleID: 5})
	assert.ErrorContains(t, err, "unknown rank")

	err = svc.SaveRankMapping(context.Background(), &models.RankMapping{SystemRank: "Marshal"})
	assert.ErrorContains(t, err, "roblox_role_id is required")
}
