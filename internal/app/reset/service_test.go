package reset_test

import (
	"testing"
	"time"

	"timeclock/internal/app/absence"
	"timeclock/internal/app/mileage"
	"timeclock/internal/app/reset"
	"timeclock/internal/app/tracker"
	"timeclock/internal/testutil"
	"timeclock/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const userID int64 = 5

type fixture struct {
	svc      reset.Service
	sessions tracker.Repository
	db       *gorm.DB
	clk      *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	clk := testutil.NewClock(time.Date(2026, 9, 16, 9, 0, 0, 0, loc))

	sessions := tracker.NewRepository(db)
	svc := reset.NewService(sessions, mileage.NewRepository(db), absence.NewRepository(db),
		clk, utils.NewEventBus(), testutil.NewTestLogger())

	// Two days of data: today (16/09) and yesterday.
	seed := []any{
		&tracker.WorkSession{UserID: userID, Date: "16/09/2026", Minutes: 60, CreatedAt: clk.Now()},
		&tracker.WorkSession{UserID: userID, Date: "16/09/2026", Minutes: 30, CreatedAt: clk.Now()},
		&tracker.WorkSession{UserID: userID, Date: "15/09/2026", Minutes: 45, CreatedAt: clk.Now()},
		&mileage.Record{UserID: userID, Date: "16/09/2026", Km: 10, Locality: "home-base", CreatedAt: clk.Now()},
		&mileage.Record{UserID: userID, Date: "15/09/2026", Km: 20, Locality: "Bologna", CreatedAt: clk.Now()},
		&absence.Record{UserID: userID, Date: "15/09/2026", Kind: absence.KindSick, CreatedAt: clk.Now()},
	}
	for _, row := range seed {
		require.NoError(t, db.Create(row).Error)
	}

	return &fixture{svc: svc, sessions: sessions, db: db, clk: clk}
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestTodayDeletesOnlyToday(t *testing.T) {
	f := newFixture(t)

	counts, err := f.svc.Today(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Sessions)
	assert.Equal(t, int64(1), counts.Mileage)
	assert.Equal(t, int64(0), counts.Absences)

	assert.Equal(t, int64(1), count(t, f.db, &tracker.WorkSession{}))
	assert.Equal(t, int64(1), count(t, f.db, &mileage.Record{}))
	assert.Equal(t, int64(1), count(t, f.db, &absence.Record{}))
}

func TestTodayClearsUserState(t *testing.T) {
	f := newFixture(t)
	now := f.clk.Now()
	require.NoError(t, f.sessions.SetStartTime(userID, &now))

	_, err := f.svc.Today(userID)
	require.NoError(t, err)

	state, err := f.sessions.GetState(userID)
	require.NoError(t, err)
	assert.Nil(t, state.StartTime)
	assert.Nil(t, state.BlockedUntil)
}

func TestAllDeletesEverything(t *testing.T) {
	f := newFixture(t)

	counts, err := f.svc.All(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Sessions)
	assert.Equal(t, int64(2), counts.Mileage)
	assert.Equal(t, int64(1), counts.Absences)

	assert.Equal(t, int64(0), count(t, f.db, &tracker.WorkSession{}))
	assert.Equal(t, int64(0), count(t, f.db, &mileage.Record{}))
	assert.Equal(t, int64(0), count(t, f.db, &absence.Record{}))
}

func TestResetLeavesOtherUsersAlone(t *testing.T) {
	f := newFixture(t)
	other := userID + 1
	require.NoError(t, f.db.Create(&tracker.WorkSession{
		UserID: other, Date: "16/09/2026", Minutes: 15, CreatedAt: f.clk.Now(),
	}).Error)

	_, err := f.svc.All(userID)
	require.NoError(t, err)

	var remaining tracker.WorkSession
	require.NoError(t, f.db.First(&remaining).Error)
	assert.Equal(t, other, remaining.UserID)
}
