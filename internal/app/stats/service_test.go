package stats_test

import (
	"context"
	"testing"
	"time"

	"timeclock/internal/app/mileage"
	"timeclock/internal/app/stats"
	"timeclock/internal/app/tracker"
	"timeclock/internal/testutil"
	"timeclock/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID int64 = 9

type fixture struct {
	svc        stats.Service
	trackerSvc tracker.Service
	sessions   tracker.Repository
	kilometers mileage.Repository
	clk        *testutil.Clock
}

// Wednesday 16/09/2026; the week's Monday is 14/09.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	clk := testutil.NewClock(time.Date(2026, 9, 16, 9, 0, 0, 0, loc))
	bus := utils.NewEventBus()
	logger := testutil.NewTestLogger()

	sessions := tracker.NewRepository(db)
	kilometers := mileage.NewRepository(db)
	trackerSvc := tracker.NewService(sessions, clk, tracker.RestartOverwrite, bus, logger)
	svc := stats.NewService(sessions, kilometers, trackerSvc, clk, nil, logger)

	return &fixture{svc: svc, trackerSvc: trackerSvc, sessions: sessions, kilometers: kilometers, clk: clk}
}

func (f *fixture) addSession(t *testing.T, date string, minutes int) {
	t.Helper()
	require.NoError(t, f.sessions.CreateSession(&tracker.WorkSession{
		UserID: userID, Date: date, Minutes: minutes, CreatedAt: f.clk.Now(),
	}))
}

func (f *fixture) addKm(t *testing.T, date string, km float64, locality string) {
	t.Helper()
	require.NoError(t, f.kilometers.Create(&mileage.Record{
		UserID: userID, Date: date, Km: km, Locality: locality, CreatedAt: f.clk.Now(),
	}))
}

func TestZeroForUserWithNoRecords(t *testing.T) {
	f := newFixture(t)

	daily, err := f.svc.DailyMinutes(userID, "16/09/2026")
	require.NoError(t, err)
	assert.Equal(t, 0, daily)

	weekly, err := f.svc.WeeklyMinutes(userID)
	require.NoError(t, err)
	assert.Equal(t, 0, weekly)

	monthly, err := f.svc.MonthlyMinutes(userID)
	require.NoError(t, err)
	assert.Equal(t, 0, monthly)

	km, err := f.svc.MonthlyDistance(userID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, km)
}

func TestDailyMinutesSumsExactDate(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "16/09/2026", 60)
	f.addSession(t, "16/09/2026", 30)
	f.addSession(t, "15/09/2026", 45)

	daily, err := f.svc.DailyMinutes(userID, "16/09/2026")
	require.NoError(t, err)
	assert.Equal(t, 90, daily)
}

func TestWeeklyMinutesFromMonday(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "14/09/2026", 60) // Monday
	f.addSession(t, "16/09/2026", 30) // today
	f.addSession(t, "12/09/2026", 45) // previous Saturday, outside the week

	weekly, err := f.svc.WeeklyMinutes(userID)
	require.NoError(t, err)
	assert.Equal(t, 90, weekly)
}

func TestMonthlyMinutesTextualMatch(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "01/09/2026", 60)
	f.addSession(t, "30/09/2026", 30)
	f.addSession(t, "15/08/2026", 120) // other month
	f.addSession(t, "16/09/2025", 120) // other year

	monthly, err := f.svc.MonthlyMinutes(userID)
	require.NoError(t, err)
	assert.Equal(t, 90, monthly)
}

func TestMonthlyDistance(t *testing.T) {
	f := newFixture(t)
	f.addKm(t, "05/09/2026", 45.5, "home-base")
	f.addKm(t, "12/09/2026", 20, "Bologna")
	f.addKm(t, "12/08/2026", 99, "home-base") // other month

	km, err := f.svc.MonthlyDistance(userID)
	require.NoError(t, err)
	assert.InDelta(t, 65.5, km, 1e-9)
}

func TestOverviewBundle(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "16/09/2026", 75)
	f.addKm(t, "05/09/2026", 12.5, "home-base")

	_, err := f.trackerSvc.StartTimer(userID)
	require.NoError(t, err)

	overview, err := f.svc.Overview(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "16/09/2026", overview.Date)
	assert.Equal(t, 1, overview.TodayHours)
	assert.Equal(t, 15, overview.TodayMinutes)
	assert.Equal(t, 1, overview.WeekHours)
	assert.Equal(t, 15, overview.WeekMinutes)
	assert.Equal(t, 1, overview.MonthHours)
	assert.Equal(t, 15, overview.MonthMinutes)
	assert.InDelta(t, 12.5, overview.MonthKm, 1e-9)
	assert.False(t, overview.Blocked)
	assert.True(t, overview.HasOpenTimer)
}

func TestOverviewReportsBlocked(t *testing.T) {
	f := newFixture(t)
	_, err := f.trackerSvc.Block(userID)
	require.NoError(t, err)

	overview, err := f.svc.Overview(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, overview.Blocked)
	assert.False(t, overview.HasOpenTimer)
}
