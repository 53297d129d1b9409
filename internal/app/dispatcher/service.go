package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"timeclock/internal/app/absence"
	"timeclock/internal/app/mileage"
	"timeclock/internal/app/report"
	"timeclock/internal/app/reset"
	"timeclock/internal/app/stats"
	"timeclock/internal/app/tracker"
	"timeclock/internal/clock"

	"go.uber.org/zap"
)

var errInvalidNumeric = errors.New("invalid numeric input")

type Service interface {
	Dispatch(ctx context.Context, userID int64, action string, data map[string]any) *Result
}

type service struct {
	trackerSvc   tracker.Service
	absenceSvc   absence.Service
	mileageSvc   mileage.Service
	statsSvc     stats.Service
	reportSvc    report.Service
	resetSvc     reset.Service
	clk          clock.Clock
	confirmToken string
	logger       *zap.SugaredLogger
}

func NewService(
	trackerSvc tracker.Service,
	absenceSvc absence.Service,
	mileageSvc mileage.Service,
	statsSvc stats.Service,
	reportSvc report.Service,
	resetSvc reset.Service,
	clk clock.Clock,
	confirmToken string,
	logger *zap.Logger,
) Service {
	return &service{
		trackerSvc:   trackerSvc,
		absenceSvc:   absenceSvc,
		mileageSvc:   mileageSvc,
		statsSvc:     statsSvc,
		reportSvc:    reportSvc,
		resetSvc:     resetSvc,
		clk:          clk,
		confirmToken: confirmToken,
		logger:       logger.Sugar(),
	}
}

// Dispatch runs one named action for one user. Validation problems come
// back as results with an error code, never as a crash; store faults
// collapse to a single opaque code.
func (s *service) Dispatch(ctx context.Context, userID int64, action string, data map[string]any) *Result {
	switch action {
	case ActionStart:
		return s.start(userID)
	case ActionStop:
		return s.stop(userID, data)
	case ActionCloseDay:
		return s.closeDay(userID)
	case ActionRecordAbsence:
		return s.recordAbsence(userID, data)
	case ActionRecordDistance:
		return s.recordDistance(userID, data)
	case ActionQueryDay:
		return s.queryDay(userID)
	case ActionQueryStats:
		return s.queryStats(ctx, userID)
	case ActionQueryKmReport:
		return s.queryKmReport(ctx, userID)
	case ActionExportReport:
		return s.exportReport(ctx, userID)
	case ActionResetToday:
		return s.resetToday(userID)
	case ActionResetAll:
		return s.resetAll(userID, data)
	default:
		return fail(CodeUnknownAction, fmt.Sprintf("unknown action %q", action))
	}
}

// gate rejects mutating actions from a blocked user. Returns nil when the
// user may proceed.
func (s *service) gate(userID int64) *Result {
	blocked, err := s.trackerSvc.IsBlocked(userID)
	if err != nil {
		return s.storeFault(userID, err)
	}
	if blocked {
		return fail(CodeAlreadyBlocked, "You are blocked until 23:59 today.")
	}
	return nil
}

func (s *service) start(userID int64) *Result {
	if r := s.gate(userID); r != nil {
		return r
	}

	startedAt, err := s.trackerSvc.StartTimer(userID)
	if err != nil {
		switch {
		case errors.Is(err, tracker.ErrAlreadyBlocked):
			return fail(CodeAlreadyBlocked, "You are blocked until 23:59 today.")
		case errors.Is(err, tracker.ErrTimerRunning):
			return fail(CodeTimerRunning, "A timer is already running; stop it first.")
		default:
			return s.storeFault(userID, err)
		}
	}

	return ok(fmt.Sprintf("Timer started at %s", startedAt.Format("15:04")), map[string]any{
		"started_at": startedAt.Format("15:04"),
	})
}

func (s *service) stop(userID int64, data map[string]any) *Result {
	if r := s.gate(userID); r != nil {
		return r
	}

	// Explicit minutes bypass the timer: the caller timed the work itself.
	if _, present := data["minutes"]; present {
		minutes, err := intFromPayload(data, "minutes")
		if err != nil || minutes <= 0 {
			return fail(CodeInvalidNumericInput, "minutes must be a positive number")
		}
		if err := s.trackerSvc.RecordDirect(userID, minutes); err != nil {
			return s.storeFault(userID, err)
		}
		return ok(fmt.Sprintf("Saved: %dh %dm", minutes/60, minutes%60), map[string]any{
			"minutes": minutes,
		})
	}

	res, err := s.trackerSvc.StopTimer(userID)
	if err != nil {
		if errors.Is(err, tracker.ErrNoOpenSession) {
			return fail(CodeNoOpenSession, "No open timer; press START first.")
		}
		return s.storeFault(userID, err)
	}

	return ok(
		fmt.Sprintf("Elapsed %dh %dm (from %s to %s)",
			res.Minutes/60, res.Minutes%60,
			res.StartedAt.Format("15:04"), res.StoppedAt.Format("15:04")),
		map[string]any{
			"minutes":    res.Minutes,
			"started_at": res.StartedAt.Format("15:04"),
			"stopped_at": res.StoppedAt.Format("15:04"),
		},
	)
}

func (s *service) closeDay(userID int64) *Result {
	if r := s.gate(userID); r != nil {
		return r
	}

	res, err := s.trackerSvc.CloseDay(userID)
	if err != nil {
		return s.storeFault(userID, err)
	}

	return ok(
		fmt.Sprintf("%s total: %dh %dm. Blocked until 23:59.",
			res.Date, res.TotalMinutes/60, res.TotalMinutes%60),
		map[string]any{
			"date":    res.Date,
			"minutes": res.TotalMinutes,
			"blocked": true,
		},
	)
}

func (s *service) recordAbsence(userID int64, data map[string]any) *Result {
	if r := s.gate(userID); r != nil {
		return r
	}

	kindStr, _ := data["kind"].(string)
	kind, valid := absence.ParseKind(kindStr)
	if !valid {
		return fail(CodeInvalidAbsenceKind, fmt.Sprintf("unknown absence kind %q", kindStr))
	}

	res, err := s.absenceSvc.Record(userID, kind)
	if err != nil {
		return s.storeFault(userID, err)
	}

	return ok(
		fmt.Sprintf("%s %s recorded. Blocked until 23:59.", res.Date, res.Kind),
		map[string]any{
			"date":    res.Date,
			"kind":    string(res.Kind),
			"blocked": true,
		},
	)
}

func (s *service) recordDistance(userID int64, data map[string]any) *Result {
	if r := s.gate(userID); r != nil {
		return r
	}

	km, err := floatFromPayload(data, "value")
	if err != nil || km < 0 {
		return fail(CodeInvalidNumericInput, "distance must be a non-negative number")
	}
	locality, _ := data["locality"].(string)

	record, err := s.mileageSvc.Record(userID, km, locality)
	if err != nil {
		return s.storeFault(userID, err)
	}

	return ok(
		fmt.Sprintf("%s %g km - %s", record.Date, record.Km, record.Locality),
		map[string]any{
			"date":     record.Date,
			"km":       record.Km,
			"locality": record.Locality,
		},
	)
}

// queryDay is the read-only sibling of close_day: today's total without
// the end-of-day block.
func (s *service) queryDay(userID int64) *Result {
	date := clock.FormatDate(s.clk.Now())
	minutes, err := s.statsSvc.DailyMinutes(userID, date)
	if err != nil {
		return s.storeFault(userID, err)
	}

	return ok(
		fmt.Sprintf("%s total: %dh %dm", date, minutes/60, minutes%60),
		map[string]any{
			"date":    date,
			"hours":   minutes / 60,
			"minutes": minutes % 60,
		},
	)
}

func (s *service) queryStats(ctx context.Context, userID int64) *Result {
	overview, err := s.statsSvc.Overview(ctx, userID)
	if err != nil {
		return s.storeFault(userID, err)
	}

	return ok(
		fmt.Sprintf("Today %dh %dm, week %dh %dm, month %dh %dm, %g km this month",
			overview.TodayHours, overview.TodayMinutes,
			overview.WeekHours, overview.WeekMinutes,
			overview.MonthHours, overview.MonthMinutes,
			overview.MonthKm),
		map[string]any{
			"today_hours":    overview.TodayHours,
			"today_minutes":  overview.TodayMinutes,
			"week_hours":     overview.WeekHours,
			"week_minutes":   overview.WeekMinutes,
			"month_hours":    overview.MonthHours,
			"month_minutes":  overview.MonthMinutes,
			"month_km":       overview.MonthKm,
			"blocked":        overview.Blocked,
			"has_open_timer": overview.HasOpenTimer,
		},
	)
}

func (s *service) queryKmReport(ctx context.Context, userID int64) *Result {
	rep, err := s.reportSvc.Monthly(ctx, userID)
	if err != nil {
		return s.storeFault(userID, err)
	}

	return ok(
		fmt.Sprintf("%s: %g km total, %g km at %s, %g km elsewhere",
			rep.Month, rep.TotalKm, rep.LocalityKm, rep.DefaultLocality, rep.ElsewhereKm),
		map[string]any{
			"report": rep,
		},
	)
}

func (s *service) exportReport(ctx context.Context, userID int64) *Result {
	res, err := s.reportSvc.Export(ctx, userID)
	if err != nil {
		if errors.Is(err, report.ErrArchiveUnavailable) {
			return fail(CodeStoreUnavailable, "Report archive is not available.")
		}
		return s.storeFault(userID, err)
	}

	return ok(
		fmt.Sprintf("Report archived (%d records)", res.Records),
		map[string]any{
			"object_name": res.ObjectName,
			"url":         res.URL,
			"records":     res.Records,
		},
	)
}

func (s *service) resetToday(userID int64) *Result {
	counts, err := s.resetSvc.Today(userID)
	if err != nil {
		return s.storeFault(userID, err)
	}
	return ok("Today's data deleted.", countsData(counts))
}

func (s *service) resetAll(userID int64, data map[string]any) *Result {
	confirm, _ := data["confirm"].(string)
	if confirm != s.confirmToken {
		// Not an error: the caller is told which confirmation step is
		// missing and nothing is deleted.
		return fail(CodeMissingConfirmation,
			fmt.Sprintf("Destructive action: resend with confirm=%q to delete everything.", s.confirmToken))
	}

	counts, err := s.resetSvc.All(userID)
	if err != nil {
		return s.storeFault(userID, err)
	}
	return ok("All data deleted.", countsData(counts))
}

func countsData(counts *reset.Counts) map[string]any {
	return map[string]any{
		"sessions": counts.Sessions,
		"mileage":  counts.Mileage,
		"absences": counts.Absences,
	}
}

// storeFault logs the real failure and reports the opaque store code. The
// core does not retry; that belongs to whatever transport sits in front.
func (s *service) storeFault(userID int64, err error) *Result {
	s.logger.Errorw("Store operation failed", "user_id", userID, "error", err)
	return fail(CodeStoreUnavailable, "Storage is temporarily unavailable, try again later.")
}

func floatFromPayload(data map[string]any, key string) (float64, error) {
	switch v := data[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, errInvalidNumeric
		}
		return f, nil
	default:
		return 0, errInvalidNumeric
	}
}

func intFromPayload(data map[string]any, key string) (int, error) {
	f, err := floatFromPayload(data, key)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, errInvalidNumeric
	}
	return int(f), nil
}
