package absence

import (
	"fmt"
	"time"

	"timeclock/internal/app/tracker"
	"timeclock/internal/clock"
	"timeclock/internal/utils"

	"go.uber.org/zap"
)

const EventAbsenceRecorded = "absence.recorded"

type RecordResult struct {
	Date         string
	Kind         Kind
	Created      bool
	BlockedUntil time.Time
}

type Service interface {
	Record(userID int64, kind Kind) (*RecordResult, error)
}

type service struct {
	repo       Repository
	trackerSvc tracker.Service
	clk        clock.Clock
	eventBus   *utils.EventBus
	logger     *zap.SugaredLogger
}

func NewService(repo Repository, trackerSvc tracker.Service, clk clock.Clock, eventBus *utils.EventBus, logger *zap.Logger) Service {
	return &service{
		repo:       repo,
		trackerSvc: trackerSvc,
		clk:        clk,
		eventBus:   eventBus,
		logger:     logger.Sugar(),
	}
}

// Record marks today as an absence and locks the user out for the rest of
// the civil day. Recording the same kind twice on one day keeps a single
// row; both calls succeed.
func (s *service) Record(userID int64, kind Kind) (*RecordResult, error) {
	now := s.clk.Now()
	date := clock.FormatDate(now)

	until, err := s.trackerSvc.Block(userID)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateIfAbsent(&Record{
		UserID:    userID,
		Date:      date,
		Kind:      kind,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save absence: %w", err)
	}
	if !created {
		s.logger.Infow("Duplicate absence ignored", "user_id", userID, "date", date, "kind", kind)
	}

	s.eventBus.Publish(EventAbsenceRecorded, userID)

	return &RecordResult{Date: date, Kind: kind, Created: created, BlockedUntil: until}, nil
}
