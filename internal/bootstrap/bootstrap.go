// Package bootstrap holds the process wiring shared by the clinic commands.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/config"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store/postgres"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store/sqlite"
)

func NewLogger(w io.Writer, service, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(level)})).With(
		slog.String("service", service),
	)
}

func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenRepository opens the configured store, applying migrations when
// cfg.AutoMigrate is set. The returned func closes it.
func OpenRepository(ctx context.Context, cfg config.Config, log *slog.Logger) (store.ClinicRepository, func() error, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		log.Info("opening sqlite database", slog.String("db_path", sqlitePath(cfg.DatabaseURL)))
		db, err := sqlite.Open(cfg.DatabaseURL, cfg.AutoMigrate)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlite.NewClinicRepo(db), func() error { return sqlite.Close(db) }, nil

	case config.DriverPostgres:
		log.Info("connecting to database", DatabaseLogArgs(cfg.DatabaseURL)...)
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			group, err := postgres.Migrate(ctx, db)
			if err != nil {
				_ = postgres.Close(db)
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
			if group.IsZero() {
				log.Info("schema up to date")
			} else {
				log.Info("migrations applied", slog.String("group", group.String()))
			}
		}
		return postgres.NewClinicRepo(db), func() error { return postgres.Close(db) }, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
}

// DatabaseLogArgs describes a postgres URL without credentials.
func DatabaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}

func sqlitePath(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return path
}
