package mileage

import (
	"fmt"

	"timeclock/internal/clock"
	"timeclock/internal/utils"

	"go.uber.org/zap"
)

const EventDistanceRecorded = "distance.recorded"

type Service interface {
	// Record appends a mileage entry for today. An empty locality falls
	// back to the configured default.
	Record(userID int64, km float64, locality string) (*Record, error)
	DefaultLocality() string
}

type service struct {
	repo            Repository
	clk             clock.Clock
	defaultLocality string
	eventBus        *utils.EventBus
	logger          *zap.SugaredLogger
}

func NewService(repo Repository, clk clock.Clock, defaultLocality string, eventBus *utils.EventBus, logger *zap.Logger) Service {
	return &service{
		repo:            repo,
		clk:             clk,
		defaultLocality: defaultLocality,
		eventBus:        eventBus,
		logger:          logger.Sugar(),
	}
}

func (s *service) Record(userID int64, km float64, locality string) (*Record, error) {
	if locality == "" {
		locality = s.defaultLocality
	}

	now := s.clk.Now()
	record := &Record{
		UserID:    userID,
		Date:      clock.FormatDate(now),
		Km:        km,
		Locality:  locality,
		CreatedAt: now,
	}
	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to save mileage record: %w", err)
	}

	s.eventBus.Publish(EventDistanceRecorded, userID)
	return record, nil
}

func (s *service) DefaultLocality() string {
	return s.defaultLocality
}
