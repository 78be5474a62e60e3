package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/consumption"
	"github.com/bher20/ecoenergy/internal/metrics"
)

// Service renders charts and reports for stored accounts.
type Service struct {
	consumption *consumption.Service
	dir         string
	log         *zap.Logger
}

// NewService writes reports under dir ("." when empty).
func NewService(c *consumption.Service, dir string, log *zap.Logger) *Service {
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{consumption: c, dir: dir, log: log}
}

// PDF renders the report of username.
func (s *Service) PDF(ctx context.Context, username string) ([]byte, error) {
	res, err := s.consumption.Calculate(ctx, username)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, NewDocument(username, res)); err != nil {
		return nil, err
	}
	metrics.ReportsTotal.WithLabelValues("pdf").Inc()
	return buf.Bytes(), nil
}

// WriteFile renders the report of username into the report directory and
// returns its path.
func (s *Service) WriteFile(ctx context.Context, username string) (string, error) {
	b, err := s.PDF(ctx, username)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(s.dir, Filename(username))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write report: %w", err)
	}
	s.log.Info("report written", zap.String("username", username), zap.String("path", path))
	return path, nil
}

// ApplianceChart renders the per-appliance chart of username.
func (s *Service) ApplianceChart(ctx context.Context, username string, style ChartStyle) ([]byte, error) {
	res, err := s.consumption.Calculate(ctx, username)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Chart(&buf, style, res.Breakdown()); err != nil {
		return nil, err
	}
	metrics.ReportsTotal.WithLabelValues(string(style)).Inc()
	return buf.Bytes(), nil
}

// HistoryChart renders the history line chart of username.
func (s *Service) HistoryChart(ctx context.Context, username string) ([]byte, error) {
	entries, err := s.consumption.History(ctx, username)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := HistoryChart(&buf, entries); err != nil {
		return nil, err
	}
	metrics.ReportsTotal.WithLabelValues("history").Inc()
	return buf.Bytes(), nil
}
