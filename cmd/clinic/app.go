package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/clinic"
	"github.com/clinic/clinic/internal/domain/reporting"
	"github.com/clinic/clinic/internal/platform/db"
)

// app holds the services every database-backed command needs.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	pool     *pgxpool.Pool
	registry *clinic.Service
	booking  *clinic.BookingService
	reports  *reporting.Service
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadWithFlags(cmd.Flags())
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}
	return cfg, newLogger(cfg), nil
}

func poolOptions(cfg *config.Config) db.PoolOptions {
	return db.PoolOptions{
		URL:             cfg.DatabaseURL,
		Schema:          cfg.DBSchema,
		ApplicationName: cfg.ServiceName,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
	}
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Debug().Str("schema", cfg.DBSchema).Msg("connected to database")

	tx := db.NewTransactor(pool)
	session := db.NewSession(pool)
	appointments := clinic.NewAppointmentRepoPG(pool)
	patients := clinic.NewPatientRepoPG(pool)
	registry := clinic.NewService(
		clinic.NewDepartmentRepoPG(pool),
		clinic.NewDoctorRepoPG(pool),
		patients,
		appointments,
		clinic.NewSequenceAllocator(session),
		tx,
		logger,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		registry: registry,
		booking:  clinic.NewBookingService(patients, appointments, tx, logger),
		reports:  reporting.NewService(session, registry, logger),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}
