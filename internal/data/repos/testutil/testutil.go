// Package testutil provides an in-memory database harness for repository
// and service tests. Each call to DB opens a fresh sqlite database so tests
// never share state.
package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ironpoint/steeltrack-backend/internal/domain/project"
	"github.com/ironpoint/steeltrack-backend/internal/domain/tracking"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("logger: %v", err)
	}
	tb.Cleanup(log.Sync)
	return log
}

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&project.Project{},
		&tracking.PieceMark{},
		&tracking.Delivery{},
		&tracking.DeliveryItem{},
		&tracking.CrewAssignment{},
		&tracking.ActivityLogEntry{},
	); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}
