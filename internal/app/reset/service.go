package reset

import (
	"fmt"

	"timeclock/internal/app/absence"
	"timeclock/internal/app/mileage"
	"timeclock/internal/app/tracker"
	"timeclock/internal/clock"
	"timeclock/internal/utils"

	"go.uber.org/zap"
)

const EventDataReset = "data.reset"

// Counts reports how many rows each table lost. There is no soft delete
// and no undo.
type Counts struct {
	Sessions int64 `json:"sessions"`
	Mileage  int64 `json:"mileage"`
	Absences int64 `json:"absences"`
}

type Service interface {
	// Today deletes today's rows from the three record tables and clears
	// the user's state row.
	Today(userID int64) (*Counts, error)
	// All deletes every row the user ever wrote.
	All(userID int64) (*Counts, error)
}

type service struct {
	sessions   tracker.Repository
	kilometers mileage.Repository
	absences   absence.Repository
	clk        clock.Clock
	eventBus   *utils.EventBus
	logger     *zap.SugaredLogger
}

func NewService(
	sessions tracker.Repository,
	kilometers mileage.Repository,
	absences absence.Repository,
	clk clock.Clock,
	eventBus *utils.EventBus,
	logger *zap.Logger,
) Service {
	return &service{
		sessions:   sessions,
		kilometers: kilometers,
		absences:   absences,
		clk:        clk,
		eventBus:   eventBus,
		logger:     logger.Sugar(),
	}
}

func (s *service) Today(userID int64) (*Counts, error) {
	date := clock.FormatDate(s.clk.Now())

	sessions, err := s.sessions.DeleteSessionsByDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to delete work sessions: %w", err)
	}
	kilometers, err := s.kilometers.DeleteByDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to delete mileage records: %w", err)
	}
	absences, err := s.absences.DeleteByDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to delete absences: %w", err)
	}
	if err := s.sessions.DeleteState(userID); err != nil {
		return nil, fmt.Errorf("failed to clear user state: %w", err)
	}

	s.logger.Infow("Reset today", "user_id", userID, "date", date,
		"sessions", sessions, "mileage", kilometers, "absences", absences)
	s.eventBus.Publish(EventDataReset, userID)

	return &Counts{Sessions: sessions, Mileage: kilometers, Absences: absences}, nil
}

func (s *service) All(userID int64) (*Counts, error) {
	sessions, err := s.sessions.DeleteSessions(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete work sessions: %w", err)
	}
	kilometers, err := s.kilometers.DeleteAll(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete mileage records: %w", err)
	}
	absences, err := s.absences.DeleteAll(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete absences: %w", err)
	}
	if err := s.sessions.DeleteState(userID); err != nil {
		return nil, fmt.Errorf("failed to clear user state: %w", err)
	}

	s.logger.Infow("Reset all", "user_id", userID,
		"sessions", sessions, "mileage", kilometers, "absences", absences)
	s.eventBus.Publish(EventDataReset, userID)

	return &Counts{Sessions: sessions, Mileage: kilometers, Absences: absences}, nil
}
