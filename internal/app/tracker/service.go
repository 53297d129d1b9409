package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"timeclock/internal/clock"
	"timeclock/internal/utils"

	"go.uber.org/zap"
)

const (
	EventSessionStarted  = "session.started"
	EventSessionRecorded = "session.recorded"
	EventDayClosed       = "day.closed"
)

var (
	ErrAlreadyBlocked = errors.New("user is blocked until end of day")
	ErrNoOpenSession  = errors.New("no open session")
	ErrTimerRunning   = errors.New("a timer is already running")
)

// RestartPolicy decides what StartTimer does when a timer is already open.
type RestartPolicy string

const (
	RestartOverwrite RestartPolicy = "overwrite"
	RestartReject    RestartPolicy = "reject"
)

func ParseRestartPolicy(s string) RestartPolicy {
	if s == string(RestartReject) {
		return RestartReject
	}
	return RestartOverwrite
}

type StopResult struct {
	Minutes   int
	StartedAt time.Time
	StoppedAt time.Time
}

type CloseDayResult struct {
	Date         string
	TotalMinutes int
	BlockedUntil time.Time
}

type Service interface {
	StartTimer(userID int64) (time.Time, error)
	StopTimer(userID int64) (*StopResult, error)
	RecordDirect(userID int64, minutes int) error
	Block(userID int64) (time.Time, error)
	IsBlocked(userID int64) (bool, error)
	HasOpenTimer(userID int64) (bool, error)
	CloseDay(userID int64) (*CloseDayResult, error)
}

type service struct {
	repo     Repository
	clk      clock.Clock
	policy   RestartPolicy
	eventBus *utils.EventBus
	logger   *zap.SugaredLogger

	// one mutex per user id: every read-check-write sequence below must be
	// serialized against concurrent actions from the same user.
	userLocks sync.Map
}

func NewService(repo Repository, clk clock.Clock, policy RestartPolicy, eventBus *utils.EventBus, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		clk:      clk,
		policy:   policy,
		eventBus: eventBus,
		logger:   logger.Sugar(),
	}
}

func (s *service) lock(userID int64) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *service) StartTimer(userID int64) (time.Time, error) {
	defer s.lock(userID)()

	blocked, err := s.isBlocked(userID)
	if err != nil {
		return time.Time{}, err
	}
	if blocked {
		return time.Time{}, ErrAlreadyBlocked
	}

	if s.policy == RestartReject {
		state, err := s.repo.GetState(userID)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to read user state: %w", err)
		}
		if state.StartTime != nil {
			return time.Time{}, ErrTimerRunning
		}
	}

	now := s.clk.Now()
	if err := s.repo.SetStartTime(userID, &now); err != nil {
		return time.Time{}, fmt.Errorf("failed to set start time: %w", err)
	}

	// The open-timer flag is part of the cached stats overview, so a start
	// is a cache-relevant write like any other.
	s.eventBus.Publish(EventSessionStarted, userID)

	return now, nil
}

func (s *service) StopTimer(userID int64) (*StopResult, error) {
	defer s.lock(userID)()

	state, err := s.repo.GetState(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read user state: %w", err)
	}
	if state.StartTime == nil {
		return nil, ErrNoOpenSession
	}

	now := s.clk.Now()
	startedAt := clock.Rebind(*state.StartTime, s.clk.Location())
	elapsed := now.Sub(startedAt).Minutes()
	minutes := clock.RoundToQuarter(elapsed)

	session := &WorkSession{
		UserID:    userID,
		Date:      clock.FormatDate(now),
		Minutes:   minutes,
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to save work session: %w", err)
	}
	if err := s.repo.SetStartTime(userID, nil); err != nil {
		return nil, fmt.Errorf("failed to clear start time: %w", err)
	}

	s.eventBus.Publish(EventSessionRecorded, userID)

	return &StopResult{Minutes: minutes, StartedAt: startedAt, StoppedAt: now}, nil
}

// RecordDirect saves pre-computed minutes for today without touching the
// timer. Callers that time work themselves (the mini-app path) use this;
// the value is stored verbatim, not rounded.
func (s *service) RecordDirect(userID int64, minutes int) error {
	defer s.lock(userID)()

	now := s.clk.Now()
	session := &WorkSession{
		UserID:    userID,
		Date:      clock.FormatDate(now),
		Minutes:   minutes,
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(session); err != nil {
		return fmt.Errorf("failed to save work session: %w", err)
	}

	s.eventBus.Publish(EventSessionRecorded, userID)
	return nil
}

func (s *service) Block(userID int64) (time.Time, error) {
	defer s.lock(userID)()
	return s.block(userID)
}

func (s *service) block(userID int64) (time.Time, error) {
	until := clock.EndOfDay(s.clk.Now())
	if err := s.repo.SetBlockedUntil(userID, &until); err != nil {
		return time.Time{}, fmt.Errorf("failed to set block: %w", err)
	}
	return until, nil
}

func (s *service) IsBlocked(userID int64) (bool, error) {
	defer s.lock(userID)()
	return s.isBlocked(userID)
}

// isBlocked reports whether blocked_until is set and still in the future.
// An expired value is cleared in place: the block is self-healing state, no
// background sweep exists.
func (s *service) isBlocked(userID int64) (bool, error) {
	state, err := s.repo.GetState(userID)
	if err != nil {
		return false, fmt.Errorf("failed to read user state: %w", err)
	}
	if state.BlockedUntil == nil {
		return false, nil
	}

	until := clock.Rebind(*state.BlockedUntil, s.clk.Location())
	if s.clk.Now().Before(until) {
		return true, nil
	}

	if err := s.repo.SetBlockedUntil(userID, nil); err != nil {
		return false, fmt.Errorf("failed to clear expired block: %w", err)
	}
	return false, nil
}

func (s *service) HasOpenTimer(userID int64) (bool, error) {
	state, err := s.repo.GetState(userID)
	if err != nil {
		return false, fmt.Errorf("failed to read user state: %w", err)
	}
	return state.StartTime != nil, nil
}

// CloseDay reports today's total and blocks the user for the rest of the
// civil day. This is the terminal "I'm done" action.
func (s *service) CloseDay(userID int64) (*CloseDayResult, error) {
	defer s.lock(userID)()

	now := s.clk.Now()
	date := clock.FormatDate(now)

	total, err := s.repo.SumMinutesByDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to sum today's minutes: %w", err)
	}

	until, err := s.block(userID)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(EventDayClosed, userID)

	return &CloseDayResult{Date: date, TotalMinutes: total, BlockedUntil: until}, nil
}
