package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"timeclock/internal/app/mileage"
	"timeclock/internal/clock"
	"timeclock/internal/providers/minio"
	"timeclock/internal/providers/redis"

	"go.uber.org/zap"
)

// ErrArchiveUnavailable is returned when no object store is configured.
var ErrArchiveUnavailable = errors.New("report archive is not configured")

// MonthlyReport partitions the month's mileage between the default locality
// and everywhere else, and lists the individual records.
type MonthlyReport struct {
	Month           string            `json:"month"`
	TotalKm         float64           `json:"total_km"`
	DefaultLocality string            `json:"default_locality"`
	LocalityKm      float64           `json:"locality_km"`
	ElsewhereKm     float64           `json:"elsewhere_km"`
	Records         []*mileage.Record `json:"records"`
}

type ExportResult struct {
	ObjectName string `json:"object_name"`
	URL        string `json:"url"`
	Records    int    `json:"records"`
}

type Service interface {
	Monthly(ctx context.Context, userID int64) (*MonthlyReport, error)
	// Export renders the current month's report to CSV and archives it in
	// the object store, returning a presigned download URL.
	Export(ctx context.Context, userID int64) (*ExportResult, error)
}

type service struct {
	kilometers      mileage.Repository
	clk             clock.Clock
	defaultLocality string
	redisP          *redis.RedisProvider
	minioP          *minio.MinioProvider
	logger          *zap.SugaredLogger
}

func NewService(
	kilometers mileage.Repository,
	clk clock.Clock,
	defaultLocality string,
	redisP *redis.RedisProvider,
	minioP *minio.MinioProvider,
	logger *zap.Logger,
) Service {
	return &service{
		kilometers:      kilometers,
		clk:             clk,
		defaultLocality: defaultLocality,
		redisP:          redisP,
		minioP:          minioP,
		logger:          logger.Sugar(),
	}
}

func (s *service) Monthly(ctx context.Context, userID int64) (*MonthlyReport, error) {
	now := s.clk.Now()
	pattern := clock.MonthPattern(now)
	cacheKey := fmt.Sprintf("stats:user:%d:kmreport:%04d-%02d", userID, now.Year(), int(now.Month()))

	if s.redisP != nil {
		cached, err := s.redisP.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var report MonthlyReport
			if json.Unmarshal([]byte(cached), &report) == nil {
				return &report, nil
			}
		}
	}

	total, err := s.kilometers.SumKmMatching(userID, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly km: %w", err)
	}
	localityKm, err := s.kilometers.SumKmMatchingAtLocality(userID, pattern, s.defaultLocality)
	if err != nil {
		return nil, fmt.Errorf("failed to sum locality km: %w", err)
	}
	elsewhereKm, err := s.kilometers.SumKmMatchingElsewhere(userID, pattern, s.defaultLocality)
	if err != nil {
		return nil, fmt.Errorf("failed to sum elsewhere km: %w", err)
	}
	records, err := s.kilometers.ListMatching(userID, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list mileage records: %w", err)
	}

	report := &MonthlyReport{
		Month:           now.Format("January 2006"),
		TotalKm:         total,
		DefaultLocality: s.defaultLocality,
		LocalityKm:      localityKm,
		ElsewhereKm:     elsewhereKm,
		Records:         records,
	}

	if s.redisP != nil {
		data, err := json.Marshal(report)
		if err == nil {
			s.redisP.SetWithDefaultTTL(ctx, cacheKey, data)
		}
	}

	return report, nil
}

func (s *service) Export(ctx context.Context, userID int64) (*ExportResult, error) {
	if s.minioP == nil {
		return nil, ErrArchiveUnavailable
	}

	report, err := s.Monthly(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := renderCSV(report)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	// Deterministic per user and month: re-exporting replaces the archive
	// instead of piling up objects.
	objectName := fmt.Sprintf("reports/%d/%04d-%02d.csv", userID, now.Year(), int(now.Month()))

	if err := s.minioP.Upload(ctx, objectName, "text/csv", data); err != nil {
		return nil, fmt.Errorf("failed to archive report: %w", err)
	}

	url, err := s.minioP.PresignedURL(ctx, objectName, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to presign report: %w", err)
	}

	s.logger.Infow("Report archived", "user_id", userID, "object", objectName, "records", len(report.Records))

	return &ExportResult{ObjectName: objectName, URL: url, Records: len(report.Records)}, nil
}

func renderCSV(report *MonthlyReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"date", "km", "locality"}); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	for _, r := range report.Records {
		row := []string{r.Date, strconv.FormatFloat(r.Km, 'f', -1, 64), r.Locality}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to render report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
