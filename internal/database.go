package internal

import (
	"fmt"
	"log"

	"ID-ENRICH/internal/config"
	"ID-ENRICH/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to the activity log database and migrates its schema.
// It is a no-op when the database is disabled.
func InitDB(cfg *config.Config) error {
	if !cfg.Database.Enabled {
		log.Println("Database disabled, activity log will not be persisted")
		return nil
	}

	dialector, err := dialectorFor(&cfg.Database)
	if err != nil {
		return err
	}

	gormCfg := &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true}
	if cfg.Server.Environment == "production" {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	DB, err = gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database connected (%s) and migrated successfully", cfg.Database.Driver)
	return nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "mysql":
		return mysql.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func autoMigrate() error {
	log.Println("Ensuring activity_logs table exists...")
	if err := DB.AutoMigrate(&models.ActivityLog{}); err != nil {
		return fmt.Errorf("failed to migrate activity_logs: %w", err)
	}
	// Stats and listing both filter on recency
	if !DB.Migrator().HasIndex(&models.ActivityLog{}, "idx_activity_logs_created_at") {
		if err := DB.Exec("CREATE INDEX idx_activity_logs_created_at ON activity_logs(created_at)").Error; err != nil {
			log.Printf("Warning: failed to create created_at index: %v", err)
		}
	}
	return nil
}

func CloseDB() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
