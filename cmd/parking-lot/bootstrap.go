package main

import (
	"context"
	"errors"
	"fmt"

	"parking-ledger/config"
	"parking-ledger/internal/audit"
	"parking-ledger/internal/logging"
	"parking-ledger/internal/parking"
	"parking-ledger/internal/services/attendant"
	"parking-ledger/internal/storage"
	"parking-ledger/internal/storage/filestore"
	"parking-ledger/internal/storage/pgstore"
	"parking-ledger/internal/storage/redisstore"
	"parking-ledger/internal/storage/sqlitestore"
)

type app struct {
	cfg       *config.Config
	telemetry *parking.TelemetryProvider
	svc       *attendant.Service
	closers   []func() error
}

func bootstrap(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	logging.Init(cfg.IsDevelopment())

	a := &app{cfg: cfg}

	if cfg.Telemetry.Enabled {
		a.telemetry, err = parking.NewTelemetryProvider(ctx, parking.TelemetryOptions{
			ServiceName:  cfg.Telemetry.ServiceName,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	} else {
		a.telemetry = parking.NewNoopTelemetryProvider()
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	ledgerCfg, err := cfg.LedgerConfig()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	ledger, err := loadLedger(ctx, store, cfg.Storage, ledgerCfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	instrumented, err := parking.NewInstrumentedLedger(ledger, a.telemetry)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	recorder, history := a.openAudit(cfg.Audit)

	a.svc = attendant.New(attendant.Deps{
		Ledger:   instrumented,
		Store:    store,
		Recorder: recorder,
		History:  history,
		AutoSave: cfg.Storage.AutoSave,
	})

	logging.Info(ctx).
		Str("storage", cfg.Storage.Driver).
		Bool("autosave", cfg.Storage.AutoSave).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Msg("parking ledger ready")

	return a, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return filestore.New(cfg.Path), nil
	case config.DriverSQLite:
		return sqlitestore.New(cfg.Path)
	case config.DriverRedis:
		return redisstore.New(cfg.RedisAddr, cfg.RedisKey), nil
	case config.DriverPostgres:
		return pgstore.New(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// loadLedger restores the stored snapshot. A snapshot that cannot be read
// stops startup unless reset_on_load_error is set.
func loadLedger(ctx context.Context, store storage.Store, cfg config.StorageConfig, ledgerCfg parking.Config) (*parking.Ledger, error) {
	ledger, err := attendant.LoadLedger(ctx, store, ledgerCfg)
	if err == nil {
		return ledger, nil
	}

	if !cfg.ResetOnLoadError || errors.Is(err, parking.ErrInvalidConfig) {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	logging.Warn(ctx).Err(err).Msg("stored snapshot unreadable, starting with an empty lot")
	return parking.NewLedger(ledgerCfg)
}

func (a *app) openAudit(cfg config.AuditConfig) (audit.Recorder, audit.Reader) {
	var (
		recorders audit.Fanout
		history   audit.Reader = audit.Nop{}
	)

	if cfg.JournalPath != "" {
		journal := audit.NewJournal(cfg.JournalPath, cfg.MaxEntries)
		recorders = append(recorders, journal)
		history = journal
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		recorders = append(recorders, publisher)
		a.closers = append(a.closers, publisher.Close)
	}

	return recorders, history
}

func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Warn(ctx).Err(err).Msg("close failed")
		}
	}
	a.closers = nil

	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			logging.Error(ctx).Err(err).Msg("error shutting down telemetry")
		}
	}
}
