package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bravo68web/repolens/internal/config"
	"github.com/bravo68web/repolens/internal/domain/models"
	"github.com/bravo68web/repolens/pkg/logger"
)

// Connection pool settings
const (
	maxIdleConns    = 10
	maxOpenConns    = 100
	connMaxLifetime = time.Hour
	connMaxIdleTime = 10 * time.Minute
)

// Database wraps the GORM database connection
type Database struct {
	db     *gorm.DB
	config *config.DatabaseConfig
	log    *logger.Logger
}

// NewDatabase opens the configured store and verifies the connection
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	log := logger.Get().WithFields(logger.Component("database"))

	var dialector gorm.Dialector
	switch {
	case cfg.IsPostgres():
		log.Info("Initializing database connection...",
			logger.String("driver", "postgres"),
			logger.String("host", cfg.Host),
			logger.Int("port", cfg.Port),
			logger.String("database", cfg.DBName),
			logger.String("sslmode", cfg.SSLMode),
		)
		dialector = postgres.Open(cfg.DSN())
	case cfg.IsSQLite():
		log.Info("Initializing database connection...",
			logger.String("driver", "sqlite"),
			logger.String("path", cfg.Path),
		)
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	// sqlite allows one writer; a single connection also keeps in-memory
	// databases from being split across connections.
	openConns := maxOpenConns
	if cfg.IsSQLite() {
		openConns = 1
	}
	sqlDB.SetMaxIdleConns(min(maxIdleConns, openConns))
	sqlDB.SetMaxOpenConns(openConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	log.Debug("Connection pool configured",
		logger.Int("max_open_conns", openConns),
		logger.Duration("conn_max_lifetime", connMaxLifetime),
	)

	database := &Database{db: db, config: cfg, log: log}

	if err := database.Ping(context.Background()); err != nil {
		log.Error("Failed to ping database", logger.Error(err))
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established successfully")
	return database, nil
}

// DB returns the underlying GORM database instance
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Migrate creates or updates the projects table
func (d *Database) Migrate() error {
	if err := d.db.AutoMigrate(&models.Project{}); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	d.log.Debug("Schema up to date")
	return nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		d.log.Error("Failed to close database connection", logger.Error(err))
		return err
	}

	d.log.Debug("Database connection closed")
	return nil
}
