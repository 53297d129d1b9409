package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"timeclock/internal/app/mileage"
	"timeclock/internal/app/tracker"
	"timeclock/internal/clock"
	"timeclock/internal/providers/redis"

	"go.uber.org/zap"
)

// Overview bundles everything a dashboard asks for in one shot.
type Overview struct {
	Date         string  `json:"date"`
	TodayHours   int     `json:"today_hours"`
	TodayMinutes int     `json:"today_minutes"`
	WeekHours    int     `json:"week_hours"`
	WeekMinutes  int     `json:"week_minutes"`
	MonthHours   int     `json:"month_hours"`
	MonthMinutes int     `json:"month_minutes"`
	MonthKm      float64 `json:"month_km"`
	Blocked      bool    `json:"blocked"`
	HasOpenTimer bool    `json:"has_open_timer"`
}

type Service interface {
	DailyMinutes(userID int64, date string) (int, error)
	WeeklyMinutes(userID int64) (int, error)
	MonthlyMinutes(userID int64) (int, error)
	MonthlyDistance(userID int64) (float64, error)
	Overview(ctx context.Context, userID int64) (*Overview, error)
	// InvalidateUser drops every cached stats entry for the user. Wired to
	// the event bus: any write for a user invalidates that user's cache.
	InvalidateUser(userID int64)
}

type service struct {
	sessions    tracker.Repository
	kilometers  mileage.Repository
	trackerSvc  tracker.Service
	clk         clock.Clock
	redisP      *redis.RedisProvider
	logger      *zap.SugaredLogger
	cachePrefix string
}

func NewService(
	sessions tracker.Repository,
	kilometers mileage.Repository,
	trackerSvc tracker.Service,
	clk clock.Clock,
	redisP *redis.RedisProvider,
	logger *zap.Logger,
) Service {
	return &service{
		sessions:    sessions,
		kilometers:  kilometers,
		trackerSvc:  trackerSvc,
		clk:         clk,
		redisP:      redisP,
		logger:      logger.Sugar(),
		cachePrefix: "stats:user",
	}
}

func (s *service) DailyMinutes(userID int64, date string) (int, error) {
	total, err := s.sessions.SumMinutesByDate(userID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to sum daily minutes: %w", err)
	}
	return total, nil
}

// WeeklyMinutes sums from the Monday of the current week through today,
// by date range on the text column. Not a rolling 7-day window.
func (s *service) WeeklyMinutes(userID int64) (int, error) {
	now := s.clk.Now()
	monday := clock.FormatDate(clock.StartOfWeek(now))
	today := clock.FormatDate(now)

	total, err := s.sessions.SumMinutesBetween(userID, monday, today)
	if err != nil {
		return 0, fmt.Errorf("failed to sum weekly minutes: %w", err)
	}
	return total, nil
}

func (s *service) MonthlyMinutes(userID int64) (int, error) {
	total, err := s.sessions.SumMinutesMatching(userID, clock.MonthPattern(s.clk.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to sum monthly minutes: %w", err)
	}
	return total, nil
}

func (s *service) MonthlyDistance(userID int64) (float64, error) {
	total, err := s.kilometers.SumKmMatching(userID, clock.MonthPattern(s.clk.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to sum monthly km: %w", err)
	}
	return total, nil
}

func (s *service) Overview(ctx context.Context, userID int64) (*Overview, error) {
	cacheKey := fmt.Sprintf("%s:%d:overview:%s", s.cachePrefix, userID, clock.FormatDate(s.clk.Now()))

	if s.redisP != nil {
		cached, err := s.redisP.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var overview Overview
			if json.Unmarshal([]byte(cached), &overview) == nil {
				return &overview, nil
			}
		}
	}

	today := clock.FormatDate(s.clk.Now())

	daily, err := s.DailyMinutes(userID, today)
	if err != nil {
		return nil, err
	}
	weekly, err := s.WeeklyMinutes(userID)
	if err != nil {
		return nil, err
	}
	monthly, err := s.MonthlyMinutes(userID)
	if err != nil {
		return nil, err
	}
	monthKm, err := s.MonthlyDistance(userID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.trackerSvc.IsBlocked(userID)
	if err != nil {
		return nil, err
	}
	open, err := s.trackerSvc.HasOpenTimer(userID)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		Date:         today,
		TodayHours:   daily / 60,
		TodayMinutes: daily % 60,
		WeekHours:    weekly / 60,
		WeekMinutes:  weekly % 60,
		MonthHours:   monthly / 60,
		MonthMinutes: monthly % 60,
		MonthKm:      monthKm,
		Blocked:      blocked,
		HasOpenTimer: open,
	}

	if s.redisP != nil {
		data, err := json.Marshal(overview)
		if err == nil {
			s.redisP.SetWithDefaultTTL(ctx, cacheKey, data)
		}
	}

	return overview, nil
}

func (s *service) InvalidateUser(userID int64) {
	if s.redisP == nil {
		return
	}

	ctx := context.Background()
	pattern := fmt.Sprintf("%s:%d:*", s.cachePrefix, userID)
	var cursor uint64
	for {
		keys, cur, err := s.redisP.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			s.logger.Warnw("Redis scan failed during cache invalidation", "error", err, "pattern", pattern)
			return
		}
		if len(keys) > 0 {
			if _, err := s.redisP.Del(ctx, keys...).Result(); err != nil {
				s.logger.Warnw("Failed to delete cache keys", "error", err, "keys", keys)
			}
		}
		if cur == 0 {
			break
		}
		cursor = cur
	}
}
