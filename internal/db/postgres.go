package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ironpoint/steeltrack-backend/internal/config"
	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(cfg config.PostgresConfig, log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	serviceLog.Info("Connecting to Postgres...", "host", cfg.Host, "database", cfg.Name)
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Project{},
		&types.PieceMark{},
		&types.Delivery{},
		&types.DeliveryItem{},
		&types.CrewAssignment{},
		&types.ActivityLogEntry{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		ddl  string
	}{
		{"fk_piece_mark_project_id", `
			ALTER TABLE "piece_mark"
			ADD CONSTRAINT "fk_piece_mark_project_id"
			FOREIGN KEY ("project_id") REFERENCES "project"("id")
			ON DELETE CASCADE`},
		{"fk_delivery_project_id", `
			ALTER TABLE "delivery"
			ADD CONSTRAINT "fk_delivery_project_id"
			FOREIGN KEY ("project_id") REFERENCES "project"("id")
			ON DELETE CASCADE`},
		{"fk_delivery_item_delivery_id", `
			ALTER TABLE "delivery_item"
			ADD CONSTRAINT "fk_delivery_item_delivery_id"
			FOREIGN KEY ("delivery_id") REFERENCES "delivery"("id")
			ON DELETE CASCADE`},
		{"fk_delivery_item_piece_mark_id", `
			ALTER TABLE "delivery_item"
			ADD CONSTRAINT "fk_delivery_item_piece_mark_id"
			FOREIGN KEY ("piece_mark_id") REFERENCES "piece_mark"("id")
			ON DELETE RESTRICT`},
		{"fk_crew_assignment_project_id", `
			ALTER TABLE "crew_assignment"
			ADD CONSTRAINT "fk_crew_assignment_project_id"
			FOREIGN KEY ("project_id") REFERENCES "project"("id")
			ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		var exists bool
		s.db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name).Scan(&exists)
		if exists {
			continue
		}
		if err := s.db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
