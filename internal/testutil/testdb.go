package testutil

import (
	"testing"
	"time"

	appdb "timeclock/internal/db"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB creates an in-memory SQLite database with all tables migrated.
// The text-date queries (LIKE, BETWEEN) behave the same as on Postgres.
// _loc pins the driver's read location so timestamp wall clocks survive the
// round trip the way they do on the Postgres timestamp columns.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_loc=Europe%2FRome"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := appdb.Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Clock is a settable fixed clock for tests.
type Clock struct {
	Current time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{Current: t}
}

func (c *Clock) Now() time.Time { return c.Current }

func (c *Clock) Location() *time.Location { return c.Current.Location() }

func (c *Clock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// NewTestLogger returns a logger that stays quiet during tests.
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}
