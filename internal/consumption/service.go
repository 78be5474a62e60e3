// Package consumption ties appliance lists, the calculator, tariffs, advice
// and history together for one account.
package consumption

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/advisor"
	"github.com/bher20/ecoenergy/internal/energy"
	"github.com/bher20/ecoenergy/internal/history"
	"github.com/bher20/ecoenergy/internal/metrics"
	"github.com/bher20/ecoenergy/internal/rates"
	"github.com/bher20/ecoenergy/internal/storage"
)

// Service is safe for concurrent use as long as the underlying storage is.
type Service struct {
	store   storage.Storage
	tariffs *rates.Table
	ledger  *history.Ledger
	log     *zap.Logger
}

// NewService returns a Service. A nil tariffs table means the built-in one.
func NewService(store storage.Storage, tariffs *rates.Table, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if tariffs == nil {
		tariffs = rates.Default()
	}
	return &Service{
		store:   store,
		tariffs: tariffs,
		ledger:  history.NewLedger(store, log),
		log:     log,
	}
}

// Tariffs returns the table used for bills.
func (s *Service) Tariffs() *rates.Table { return s.tariffs }

// Ledger returns the history ledger backed by the same storage.
func (s *Service) Ledger() *history.Ledger { return s.ledger }

// AddAppliance validates a and appends it to the list of username. The
// name is trimmed, the area normalized and a fresh id assigned.
func (s *Service) AddAppliance(ctx context.Context, username string, a energy.Appliance) (energy.Appliance, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Area = energy.ParseArea(string(a.Area))
	if err := a.Validate(); err != nil {
		return energy.Appliance{}, err
	}
	a.ID = uuid.NewString()
	if err := s.store.AddAppliance(ctx, username, a); err != nil {
		return energy.Appliance{}, fmt.Errorf("add appliance: %w", err)
	}
	s.log.Info("appliance added",
		zap.String("username", username),
		zap.String("name", a.Name),
		zap.String("area", string(a.Area)))
	return a, nil
}

// Appliances lists the appliances of username in insertion order.
func (s *Service) Appliances(ctx context.Context, username string) ([]energy.Appliance, error) {
	list, err := s.store.ListAppliances(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list appliances: %w", err)
	}
	return list, nil
}

// Reset removes every appliance of username. History is kept.
func (s *Service) Reset(ctx context.Context, username string) error {
	if err := s.store.ClearAppliances(ctx, username); err != nil {
		return fmt.Errorf("reset appliances: %w", err)
	}
	s.log.Info("appliances reset", zap.String("username", username))
	return nil
}

// Calculate runs the calculator over the stored appliances of username.
func (s *Service) Calculate(ctx context.Context, username string) (energy.ConsumptionResult, error) {
	list, err := s.Appliances(ctx, username)
	if err != nil {
		return energy.ConsumptionResult{}, err
	}
	res, err := energy.Calculate(list)
	if err != nil {
		return energy.ConsumptionResult{}, fmt.Errorf("calculate %s: %w", username, err)
	}
	metrics.CalculationsTotal.Inc()
	return res, nil
}

// RecordMonth appends the current monthly total of username to its history.
func (s *Service) RecordMonth(ctx context.Context, username, origin string) (storage.HistoryEntry, error) {
	res, err := s.Calculate(ctx, username)
	if err != nil {
		return storage.HistoryEntry{}, err
	}
	e, err := s.ledger.Append(ctx, username, res.TotalKWh)
	if err != nil {
		return storage.HistoryEntry{}, err
	}
	metrics.HistoryAppendsTotal.WithLabelValues(origin).Inc()
	return e, nil
}

// History lists the history of username.
func (s *Service) History(ctx context.Context, username string) ([]storage.HistoryEntry, error) {
	return s.ledger.List(ctx, username)
}

// Summary is everything the dashboard shows for one account.
type Summary struct {
	Username    string                   `json:"username"`
	Consumption energy.ConsumptionResult `json:"consumption"`
	Breakdown   []energy.NamedKWh        `json:"breakdown"`
	Bill        rates.Bill               `json:"bill"`
	Advice      advisor.Advice           `json:"advice"`
	History     []storage.HistoryEntry   `json:"history"`
}

// Summary computes the dashboard of username with bills priced for state.
func (s *Service) Summary(ctx context.Context, username, state string) (Summary, error) {
	res, err := s.Calculate(ctx, username)
	if err != nil {
		return Summary{}, err
	}
	hist, err := s.History(ctx, username)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Username:    username,
		Consumption: res,
		Breakdown:   res.Breakdown(),
		Bill:        s.tariffs.Bill(res.TotalKWh, state),
		Advice:      advisor.AdviceFor(res.TotalKWh),
		History:     hist,
	}, nil
}
