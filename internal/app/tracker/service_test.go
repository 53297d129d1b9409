package tracker_test

import (
	"testing"
	"time"

	"timeclock/internal/app/tracker"
	"timeclock/internal/testutil"
	"timeclock/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const userID int64 = 42

func newFixture(t *testing.T, policy tracker.RestartPolicy) (tracker.Service, tracker.Repository, *testutil.Clock, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	clk := testutil.NewClock(time.Date(2026, 9, 16, 9, 0, 0, 0, loc))
	repo := tracker.NewRepository(db)
	svc := tracker.NewService(repo, clk, policy, utils.NewEventBus(), testutil.NewTestLogger())
	return svc, repo, clk, db
}

func sessionCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&tracker.WorkSession{}).Count(&count).Error)
	return count
}

func TestStartStopRoundsUpToQuarter(t *testing.T) {
	svc, _, clk, db := newFixture(t, tracker.RestartOverwrite)

	startedAt, err := svc.StartTimer(userID)
	require.NoError(t, err)
	assert.Equal(t, "09:00", startedAt.Format("15:04"))

	clk.Advance(47 * time.Minute)

	res, err := svc.StopTimer(userID)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Minutes)
	assert.Equal(t, "09:00", res.StartedAt.Format("15:04"))
	assert.Equal(t, "09:47", res.StoppedAt.Format("15:04"))

	var session tracker.WorkSession
	require.NoError(t, db.First(&session).Error)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, "16/09/2026", session.Date)
	assert.Equal(t, 60, session.Minutes)
}

func TestStopClearsStartTime(t *testing.T) {
	svc, repo, clk, _ := newFixture(t, tracker.RestartOverwrite)

	_, err := svc.StartTimer(userID)
	require.NoError(t, err)
	clk.Advance(10 * time.Minute)
	_, err = svc.StopTimer(userID)
	require.NoError(t, err)

	state, err := repo.GetState(userID)
	require.NoError(t, err)
	assert.Nil(t, state.StartTime)

	open, err := svc.HasOpenTimer(userID)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestStopWithoutStart(t *testing.T) {
	svc, _, _, db := newFixture(t, tracker.RestartOverwrite)

	_, err := svc.StopTimer(userID)
	assert.ErrorIs(t, err, tracker.ErrNoOpenSession)
	assert.Equal(t, int64(0), sessionCount(t, db))
}

func TestStartWhileBlocked(t *testing.T) {
	svc, repo, _, _ := newFixture(t, tracker.RestartOverwrite)

	_, err := svc.Block(userID)
	require.NoError(t, err)

	_, err = svc.StartTimer(userID)
	assert.ErrorIs(t, err, tracker.ErrAlreadyBlocked)

	state, err := repo.GetState(userID)
	require.NoError(t, err)
	assert.Nil(t, state.StartTime)
}

func TestBlockExpiresLazily(t *testing.T) {
	svc, repo, clk, _ := newFixture(t, tracker.RestartOverwrite)

	until, err := svc.Block(userID)
	require.NoError(t, err)
	assert.Equal(t, "23:59:59", until.Format("15:04:05"))

	blocked, err := svc.IsBlocked(userID)
	require.NoError(t, err)
	assert.True(t, blocked)

	// Past midnight the block is over and the check itself heals the row.
	clk.Advance(16 * time.Hour)
	blocked, err = svc.IsBlocked(userID)
	require.NoError(t, err)
	assert.False(t, blocked)

	state, err := repo.GetState(userID)
	require.NoError(t, err)
	assert.Nil(t, state.BlockedUntil)
}

func TestRestartOverwritePolicy(t *testing.T) {
	svc, repo, clk, _ := newFixture(t, tracker.RestartOverwrite)

	first, err := svc.StartTimer(userID)
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)
	second, err := svc.StartTimer(userID)
	require.NoError(t, err)
	assert.True(t, second.After(first))

	state, err := repo.GetState(userID)
	require.NoError(t, err)
	require.NotNil(t, state.StartTime)
	assert.Equal(t, "09:30", state.StartTime.Format("15:04"))
}

func TestRestartRejectPolicy(t *testing.T) {
	svc, repo, clk, _ := newFixture(t, tracker.RestartReject)

	_, err := svc.StartTimer(userID)
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)
	_, err = svc.StartTimer(userID)
	assert.ErrorIs(t, err, tracker.ErrTimerRunning)

	state, err := repo.GetState(userID)
	require.NoError(t, err)
	require.NotNil(t, state.StartTime)
	assert.Equal(t, "09:00", state.StartTime.Format("15:04"))
}

func TestRecordDirectStoresVerbatim(t *testing.T) {
	svc, _, _, db := newFixture(t, tracker.RestartOverwrite)

	require.NoError(t, svc.RecordDirect(userID, 47))

	var session tracker.WorkSession
	require.NoError(t, db.First(&session).Error)
	assert.Equal(t, 47, session.Minutes)
}

func TestCloseDaySumsAndBlocks(t *testing.T) {
	svc, _, clk, _ := newFixture(t, tracker.RestartOverwrite)

	_, err := svc.StartTimer(userID)
	require.NoError(t, err)
	clk.Advance(45 * time.Minute)
	_, err = svc.StopTimer(userID)
	require.NoError(t, err)
	require.NoError(t, svc.RecordDirect(userID, 30))

	res, err := svc.CloseDay(userID)
	require.NoError(t, err)
	assert.Equal(t, "16/09/2026", res.Date)
	assert.Equal(t, 75, res.TotalMinutes)
	assert.Equal(t, "23:59:59", res.BlockedUntil.Format("15:04:05"))

	blocked, err := svc.IsBlocked(userID)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestStartAndStopPublishEvents(t *testing.T) {
	db := testutil.NewTestDB(t)
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	clk := testutil.NewClock(time.Date(2026, 9, 16, 9, 0, 0, 0, loc))

	bus := utils.NewEventBus()
	defer bus.Close()
	events := make(chan utils.Event, 4)
	for _, name := range []string{tracker.EventSessionStarted, tracker.EventSessionRecorded} {
		bus.Subscribe(name, func(e utils.Event) { events <- e })
	}
	go bus.Run()

	svc := tracker.NewService(tracker.NewRepository(db), clk, tracker.RestartOverwrite, bus, testutil.NewTestLogger())

	waitEvent := func(want string) {
		t.Helper()
		select {
		case e := <-events:
			assert.Equal(t, want, e.Name)
			assert.Equal(t, userID, e.UserID)
		case <-time.After(time.Second):
			t.Fatalf("no %s event arrived", want)
		}
	}

	_, err = svc.StartTimer(userID)
	require.NoError(t, err)
	waitEvent(tracker.EventSessionStarted)

	clk.Advance(30 * time.Minute)
	_, err = svc.StopTimer(userID)
	require.NoError(t, err)
	waitEvent(tracker.EventSessionRecorded)
}

func TestStateIsPerUser(t *testing.T) {
	svc, _, _, _ := newFixture(t, tracker.RestartOverwrite)

	_, err := svc.Block(userID)
	require.NoError(t, err)

	other := userID + 1
	blocked, err := svc.IsBlocked(other)
	require.NoError(t, err)
	assert.False(t, blocked)

	_, err = svc.StartTimer(other)
	require.NoError(t, err)
}
