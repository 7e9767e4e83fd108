package backend

import (
	"context"
	"fmt"
	"log/slog"

	"kharcha/internal/store/google"
	"kharcha/internal/store/memory"
	"kharcha/internal/store/sqlite"
)

// Factory builds the configured store.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create opens the store selected by cfg.Type.
func (f *Factory) Create(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case SQLiteBackend:
		return f.createSQLite(ctx, cfg)
	case SheetsBackend:
		return f.createSheets(ctx, cfg)
	default:
		return f.createMemory(cfg), nil
	}
}

func (f *Factory) createSQLite(ctx context.Context, cfg Config) (*BackendResult, error) {
	st, err := sqlite.Open(ctx, cfg.SQLiteDBPath, memory.SeedVocabulary(dataDir(cfg)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &BackendResult{Store: st, Cleanup: st.Close}, nil
}

func (f *Factory) createSheets(ctx context.Context, cfg Config) (*BackendResult, error) {
	cli, err := google.New(ctx, cfg.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend",
		"expenses_sheet", cfg.Sheets.ExpensesSheet,
		"poll_interval", cfg.Sheets.PollInterval)
	return &BackendResult{Store: cli}, nil
}

func (f *Factory) createMemory(cfg Config) *BackendResult {
	dir := dataDir(cfg)
	f.logger.Info("Initialized memory backend", "data_directory", dir)
	return &BackendResult{Store: memory.NewFromFiles(dir)}
}

func dataDir(cfg Config) string {
	if cfg.DataDir == "" {
		return "data"
	}
	return cfg.DataDir
}
