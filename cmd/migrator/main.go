package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/niksmo/shopcart/config"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
	configFlag        = "config"
	configFileEnvName = "SHOPCART_CONFIG_FILE"
)

func main() {
	storagePath, migrationsPath := getFlagsValues()
	validateFlags(storagePath, migrationsPath)
	makeMigrations(toMigrateDSN(storagePath), migrationsPath)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

// getFlagsValues falls back to sql_db of the service config
// when the storage path is not set.
func getFlagsValues() (storage, migrations string) {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "postgres DSN")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "./migrations", "migrations dir")
	configPath := pflag.StringP(configFlag, "c", "", "service config file")
	pflag.Parse()

	if *storagePath != "" {
		return *storagePath, *migrationsPath
	}

	path := *configPath
	if env, ok := os.LookupEnv(configFileEnvName); ok && path == "" {
		path = env
	}
	if path == "" {
		return "", *migrationsPath
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		fallDown()
	}
	return cfg.SQLDB, *migrationsPath
}

func validateFlags(storagePath, migrationsPath string) {
	var errs []error

	if storagePath == "" {
		errs = append(errs, fmt.Errorf(
			"--%s or --%s flag: required", storagePathFlag, configFlag,
		))
	}

	if migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

// toMigrateDSN switches a postgres URL to the pgx5 driver scheme.
func toMigrateDSN(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn
	}
	return "pgx5://" + dsn
}

func makeMigrations(dsn, migrationsPath string) {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}

	m.Log = NewMigrationLogger()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migration applied")
}

func fallDown() {
	os.Exit(2)
}
