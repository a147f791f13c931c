package main

import (
	"context"
	"os"
	"strings"

	"github.com/fhuszti/uploads-ms-go/internal/config"
	"github.com/fhuszti/uploads-ms-go/internal/db"
	"github.com/fhuszti/uploads-ms-go/internal/migration"
	_ "github.com/go-sql-driver/mysql"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.InitService("uploads-migrate")

	database, err := initDb(cfg)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	if err := migration.MigrateUp(database.DB); err != nil {
		logger.Errorf(ctx, "❌  Migration up failed: %v", err)
		os.Exit(1)
	}

	version, dirty, err := migration.Version(database.DB)
	if err != nil {
		logger.Errorf(ctx, "❌  Could not read schema version: %v", err)
		os.Exit(1)
	}
	if dirty {
		logger.Errorf(ctx, "❌  Schema left dirty at version %d", version)
		os.Exit(1)
	}

	logger.Infof(ctx, "✅  Migrations applied successfully, schema at version %d", version)
}

func initDb(cfg *config.Settings) (*db.Database, error) {
	return db.New(withMultiStatements(cfg.MariaDBDSN), cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
}

func withMultiStatements(dsn string) string {
	if strings.Contains(dsn, "multiStatements=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&multiStatements=true"
	}
	return dsn + "?multiStatements=true"
}
