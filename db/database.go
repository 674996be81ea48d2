package db

import (
	"database/sql"
	"fmt"

	"tuneshelf/config"
	"tuneshelf/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// Connect establishes a connection pool to the database.
// The returned *sql.DB is safe for concurrent use and is injected into the
// components that need it; there is no package-level handle.
func Connect(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database",
		logger.String("host", cfg.DBHost),
		logger.String("database", cfg.DBName))
	return sqlDB, nil
}
