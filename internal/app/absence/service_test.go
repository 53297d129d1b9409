package absence_test

import (
	"testing"
	"time"

	"timeclock/internal/app/absence"
	"timeclock/internal/app/tracker"
	"timeclock/internal/testutil"
	"timeclock/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const userID int64 = 7

func newFixture(t *testing.T) (absence.Service, tracker.Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	clk := testutil.NewClock(time.Date(2026, 9, 16, 9, 0, 0, 0, loc))
	bus := utils.NewEventBus()
	logger := testutil.NewTestLogger()

	trackerSvc := tracker.NewService(tracker.NewRepository(db), clk, tracker.RestartOverwrite, bus, logger)
	svc := absence.NewService(absence.NewRepository(db), trackerSvc, clk, bus, logger)
	return svc, trackerSvc, db
}

func TestParseKind(t *testing.T) {
	kind, ok := absence.ParseKind("SICK")
	assert.True(t, ok)
	assert.Equal(t, absence.KindSick, kind)

	kind, ok = absence.ParseKind("VACATION")
	assert.True(t, ok)
	assert.Equal(t, absence.KindVacation, kind)

	kind, ok = absence.ParseKind("sick")
	assert.True(t, ok)
	assert.Equal(t, absence.KindSick, kind)

	_, ok = absence.ParseKind("")
	assert.False(t, ok)
	_, ok = absence.ParseKind("espresso")
	assert.False(t, ok)
}

func TestRecordBlocksForTheDay(t *testing.T) {
	svc, trackerSvc, _ := newFixture(t)

	res, err := svc.Record(userID, absence.KindSick)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "16/09/2026", res.Date)
	assert.Equal(t, "23:59:59", res.BlockedUntil.Format("15:04:05"))

	blocked, err := trackerSvc.IsBlocked(userID)
	require.NoError(t, err)
	assert.True(t, blocked)

	_, err = trackerSvc.StartTimer(userID)
	assert.ErrorIs(t, err, tracker.ErrAlreadyBlocked)
}

func TestDuplicateRecordIsIdempotent(t *testing.T) {
	svc, _, db := newFixture(t)

	first, err := svc.Record(userID, absence.KindSick)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.Record(userID, absence.KindSick)
	require.NoError(t, err)
	assert.False(t, second.Created)

	var count int64
	require.NoError(t, db.Model(&absence.Record{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDifferentKindsSameDay(t *testing.T) {
	svc, _, db := newFixture(t)

	_, err := svc.Record(userID, absence.KindSick)
	require.NoError(t, err)
	_, err = svc.Record(userID, absence.KindVacation)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&absence.Record{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
