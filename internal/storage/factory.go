package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Config controls how the storage backend is opened.
type Config struct {
	Driver string
	DSN    string
	Logger *zap.Logger
}

// Drivers lists the accepted Config.Driver values.
func Drivers() []string { return []string{"memory", "file", "sqlite", "postgres"} }

// Open constructs a Storage based on the given configuration.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	drv := cfg.Driver
	if drv == "" {
		drv = "file"
	}
	switch drv {
	case "memory":
		log.Info("storage: using in-memory backend")
		return NewMemory(), nil

	case "file":
		log.Info("storage: using json file backend", zap.String("path", cfg.DSN))
		return NewFileStorage(cfg.DSN)

	case "sqlite", "postgres":
		log.Info("storage: using gorm backend", zap.String("driver", drv))
		st, err := NewGormStorage(drv, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}
}

// Copy replays every account of src into dst: the account itself, its
// appliances in order and its history entries with their original month
// indices. Accounts that already exist in dst are skipped and reported.
func Copy(ctx context.Context, dst, src Storage) (copied int, skipped []string, err error) {
	accounts, err := src.ListAccounts(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("list source accounts: %w", err)
	}
	for _, acc := range accounts {
		existing, err := dst.GetAccount(ctx, acc.Username)
		if err != nil {
			return copied, skipped, err
		}
		if existing != nil {
			skipped = append(skipped, acc.Username)
			continue
		}
		if err := dst.CreateAccount(ctx, acc); err != nil {
			return copied, skipped, fmt.Errorf("create %s: %w", acc.Username, err)
		}
		appliances, err := src.ListAppliances(ctx, acc.Username)
		if err != nil {
			return copied, skipped, err
		}
		for _, a := range appliances {
			if err := dst.AddAppliance(ctx, acc.Username, a); err != nil {
				return copied, skipped, fmt.Errorf("copy appliance of %s: %w", acc.Username, err)
			}
		}
		history, err := src.ListHistory(ctx, acc.Username)
		if err != nil {
			return copied, skipped, err
		}
		for _, h := range history {
			h := h
			if _, err := dst.AppendHistory(ctx, acc.Username, func(int) HistoryEntry { return h }); err != nil {
				return copied, skipped, fmt.Errorf("copy history of %s: %w", acc.Username, err)
			}
		}
		copied++
	}
	return copied, skipped, nil
}
