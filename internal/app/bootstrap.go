package app

import (
	"timeclock/internal/app/absence"
	"timeclock/internal/app/dispatcher"
	"timeclock/internal/app/health"
	"timeclock/internal/app/mileage"
	"timeclock/internal/app/report"
	"timeclock/internal/app/reset"
	"timeclock/internal/app/stats"
	"timeclock/internal/app/tracker"
	"timeclock/internal/clock"
	"timeclock/internal/config"
	"timeclock/internal/db"
	"timeclock/internal/gateways/chat"
	"timeclock/internal/providers/minio"
	"timeclock/internal/providers/redis"
	"timeclock/internal/router"
	"timeclock/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Application struct {
	Router *router.Router
	Chat   *chat.Gateway
	DB     *gorm.DB
}

func Bootstrap(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	clk, err := clock.NewSystem(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	redisProvider := redis.NewRedisProvider(cfg.RedisURL, logger, cfg.RedisTTL)
	minioProvider, err := minio.NewMinioProvider(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize MinIO provider, report export disabled", zap.Error(err))
		minioProvider = nil
	}

	eventBus := utils.NewEventBus()
	go eventBus.Run()

	trackerRepo := tracker.NewRepository(dbConn)
	mileageRepo := mileage.NewRepository(dbConn)
	absenceRepo := absence.NewRepository(dbConn)

	trackerSvc := tracker.NewService(trackerRepo, clk, tracker.ParseRestartPolicy(cfg.RestartPolicy), eventBus, logger)
	absenceSvc := absence.NewService(absenceRepo, trackerSvc, clk, eventBus, logger)
	mileageSvc := mileage.NewService(mileageRepo, clk, cfg.DefaultLocality, eventBus, logger)
	statsSvc := stats.NewService(trackerRepo, mileageRepo, trackerSvc, clk, redisProvider, logger)
	reportSvc := report.NewService(mileageRepo, clk, cfg.DefaultLocality, redisProvider, minioProvider, logger)
	resetSvc := reset.NewService(trackerRepo, mileageRepo, absenceRepo, clk, eventBus, logger)

	dispatcherSvc := dispatcher.NewService(
		trackerSvc, absenceSvc, mileageSvc, statsSvc, reportSvc, resetSvc,
		clk, cfg.ResetConfirmToken, logger,
	)

	// Any write for a user makes that user's cached stats stale.
	audit := logger.Sugar()
	for _, event := range []string{
		tracker.EventSessionStarted,
		tracker.EventSessionRecorded,
		tracker.EventDayClosed,
		absence.EventAbsenceRecorded,
		mileage.EventDistanceRecorded,
		reset.EventDataReset,
	} {
		eventBus.Subscribe(event, func(e utils.Event) {
			audit.Infow("Tracking event", "event", e.Name, "user_id", e.UserID)
			statsSvc.InvalidateUser(e.UserID)
		})
	}

	chatGateway := chat.NewGateway(dispatcherSvc, logger)

	checker := &utils.HealthChecker{
		DB:    dbConn,
		Redis: redisProvider.Client,
	}
	if minioProvider != nil {
		checker.Archive = minioProvider
	}
	healthHandler := health.NewHandler(checker)
	actionHandler := dispatcher.NewHandler(dispatcherSvc)

	r := router.NewRouter(logger)
	r.RegisterHealthRoutes(healthHandler)
	r.RegisterActionRoutes(actionHandler)

	return &Application{
		Router: r,
		Chat:   chatGateway,
		DB:     dbConn,
	}, nil
}
