package postgres

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/pkg/errors"
)

// RunMigrations applies all pending schema migrations from the configured
// migration source.  A database already at the latest version is not an
// error.
func RunMigrations(cfg config.DatabaseConfig, logger logging.Logger) error {
	m, err := migrate.New(cfg.MigrationPath, BuildDSN(cfg))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create migrate instance")
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil {
			logger.Warn("failed to close migration source", logging.Err(sourceErr))
		}
		if dbErr != nil {
			logger.Warn("failed to close migration database handle", logging.Err(dbErr))
		}
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to run migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		logger.Warn("failed to read migration version", logging.Err(err))
	}
	logger.Info("database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}
