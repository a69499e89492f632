package persistence

import (
	"fmt"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

type databaseOptions struct {
	logger  gormlogger.Interface
	tracing bool
	dbName  string
}

// DatabaseOption configures how a Database is opened
type DatabaseOption func(*databaseOptions)

// WithGormLogger routes gorm logs through l
func WithGormLogger(l gormlogger.Interface) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = l
	}
}

// WithTracing registers the otelgorm plugin
func WithTracing(enabled bool) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = enabled
	}
}

// OpenSQLite opens (or creates) a SQLite database file. ":memory:" is
// limited to one connection so every query sees the same database.
func OpenSQLite(path string, opts ...DatabaseOption) (*Database, error) {
	db, err := open(sqlite.Open(path), "sqlite", opts)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenPostgres connects to PostgreSQL with the configured pool settings
func OpenPostgres(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	db, err := open(postgres.Open(cfg.DSN()), "postgres", opts)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func open(dialector gorm.Dialector, name string, opts []DatabaseOption) (*Database, error) {
	o := &databaseOptions{
		logger: gormlogger.Default.LogMode(gormlogger.Silent),
		dbName: name,
	}
	for _, opt := range opts {
		opt(o)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if o.tracing {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(o.dbName))); err != nil {
			return nil, fmt.Errorf("failed to register tracing plugin: %w", err)
		}
	}

	return &Database{DB: db}, nil
}

// Migrate creates or updates the tables this service owns
func (d *Database) Migrate() error {
	if err := d.DB.AutoMigrate(&models.KeyValueModel{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
