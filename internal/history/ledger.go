// Package history records monthly consumption totals per account.
package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/energy"
	"github.com/bher20/ecoenergy/internal/storage"
)

// Ledger appends and lists history entries. Entries are never edited or
// removed; the month index is the position in the ledger, not a calendar
// month.
type Ledger struct {
	store storage.Storage
	log   *zap.Logger
	now   func() time.Time
}

func NewLedger(store storage.Storage, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, log: log, now: time.Now}
}

// Append records totalKWh as the next month for username.
func (l *Ledger) Append(ctx context.Context, username string, totalKWh float64) (storage.HistoryEntry, error) {
	if totalKWh < 0 || math.IsNaN(totalKWh) || math.IsInf(totalKWh, 0) {
		return storage.HistoryEntry{}, fmt.Errorf("%w: consumption %v", energy.ErrInvalidInput, totalKWh)
	}
	at := l.now()
	e, err := l.store.AppendHistory(ctx, username, func(count int) storage.HistoryEntry {
		return storage.HistoryEntry{MonthIndex: count + 1, ConsumptionKWh: totalKWh, RecordedAt: at}
	})
	if err != nil {
		return storage.HistoryEntry{}, fmt.Errorf("append history for %s: %w", username, err)
	}
	l.log.Debug("history appended",
		zap.String("username", username),
		zap.Int("month_index", e.MonthIndex),
		zap.Float64("kwh", e.ConsumptionKWh))
	return *e, nil
}

// List returns the entries of username in month order.
func (l *Ledger) List(ctx context.Context, username string) ([]storage.HistoryEntry, error) {
	entries, err := l.store.ListHistory(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", username, err)
	}
	return entries, nil
}

// ErrEmpty is returned by Latest for an account without history.
var ErrEmpty = errors.New("no history entries")

// Latest returns the most recent entry of username.
func (l *Ledger) Latest(ctx context.Context, username string) (storage.HistoryEntry, error) {
	entries, err := l.List(ctx, username)
	if err != nil {
		return storage.HistoryEntry{}, err
	}
	if len(entries) == 0 {
		return storage.HistoryEntry{}, ErrEmpty
	}
	return entries[len(entries)-1], nil
}
