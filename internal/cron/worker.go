// Package cron runs the periodic history snapshot: every account with
// appliances gets its current monthly total appended to its history.
package cron

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bher20/ecoenergy/internal/alerting"
	"github.com/bher20/ecoenergy/internal/consumption"
	"github.com/bher20/ecoenergy/internal/metrics"
	"github.com/bher20/ecoenergy/internal/storage"
)

const (
	JobName = "history_snapshot"
	// HistoryOrigin labels history appends made by the worker.
	HistoryOrigin = "snapshot"

	lockKey     int64 = 42
	concurrency       = 4
)

var (
	ErrNoSchedule = errors.New("no snapshot schedule configured")
	ErrLockHeld   = errors.New("snapshot lock held by another worker")
)

// Schedule yields the next run after a given time.
type Schedule interface {
	Next(time.Time) time.Time
}

type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

// ParseSchedule accepts a positive number of seconds, a Go duration or a
// standard five-field cron expression.
func ParseSchedule(setting string) (Schedule, error) {
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return nil, ErrNoSchedule
	}
	if v, err := strconv.Atoi(setting); err == nil {
		if v <= 0 {
			return nil, fmt.Errorf("snapshot interval must be positive: %q", setting)
		}
		return every(time.Duration(v) * time.Second), nil
	}
	if d, err := time.ParseDuration(setting); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("snapshot interval must be positive: %q", setting)
		}
		return every(d), nil
	}
	sched, err := cron.ParseStandard(setting)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot schedule %q: %w", setting, err)
	}
	return sched, nil
}

// Result summarizes one snapshot run.
type Result struct {
	Recorded int                       `json:"recorded"`
	Skipped  int                       `json:"skipped"`
	Failed   []alerting.AccountFailure `json:"failed,omitempty"`
	Duration time.Duration             `json:"duration"`
}

// SnapshotWorker appends a history entry for every account on a schedule.
// An advisory lock keeps replicas sharing a database from running it twice.
type SnapshotWorker struct {
	store   storage.Storage
	svc     *consumption.Service
	alerter *alerting.Alerter
	state   string
	log     *zap.Logger
}

// NewSnapshotWorker wires a worker. state, when set, prices each snapshot
// in the log; alerter may be nil.
func NewSnapshotWorker(store storage.Storage, svc *consumption.Service, alerter *alerting.Alerter, state string, log *zap.Logger) *SnapshotWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotWorker{store: store, svc: svc, alerter: alerter, state: state, log: log.Named("snapshot")}
}

// RunOnce takes the lock and snapshots every account. It returns
// ErrLockHeld when another worker is running.
func (w *SnapshotWorker) RunOnce(ctx context.Context) (Result, error) {
	started := time.Now()

	ok, err := w.store.AcquireAdvisoryLock(ctx, lockKey)
	if err != nil {
		metrics.UpdateJobMetrics(JobName, started, err)
		return Result{}, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !ok {
		return Result{}, ErrLockHeld
	}
	defer func() {
		if _, err := w.store.ReleaseAdvisoryLock(context.WithoutCancel(ctx), lockKey); err != nil {
			w.log.Warn("release advisory lock failed", zap.Error(err))
		}
	}()

	res, runErr := w.snapshot(ctx)
	res.Duration = time.Since(started)

	metrics.UpdateJobMetrics(JobName, started, runErr)
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := w.store.UpdateScheduledJob(ctx, JobName, started, res.Duration, runErr == nil, errMsg); err != nil {
		w.log.Warn("update scheduled job failed", zap.Error(err))
	}

	if len(res.Failed) > 0 && w.alerter != nil {
		alert := alerting.SnapshotAlert{
			JobName:       JobName,
			TotalCount:    res.Recorded + len(res.Failed),
			SuccessCount:  res.Recorded,
			FailedCount:   len(res.Failed),
			Duration:      res.Duration,
			FailedDetails: res.Failed,
			Timestamp:     started,
		}
		if err := w.alerter.SendSnapshotAlert(ctx, alert); err != nil {
			w.log.Warn("send alert failed", zap.Error(err))
		}
	}

	if runErr != nil {
		w.log.Error("snapshot completed with errors", zap.Error(runErr), zap.Duration("duration", res.Duration))
	} else {
		w.log.Info("snapshot completed",
			zap.Int("recorded", res.Recorded), zap.Int("skipped", res.Skipped), zap.Duration("duration", res.Duration))
	}
	return res, runErr
}

func (w *SnapshotWorker) snapshot(ctx context.Context) (Result, error) {
	var res Result
	accounts, err := w.store.ListAccounts(ctx)
	if err != nil {
		return res, fmt.Errorf("list accounts: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, acc := range accounts {
		username := acc.Username
		g.Go(func() error {
			recorded, err := w.snapshotAccount(gctx, username)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed = append(res.Failed, alerting.AccountFailure{Username: username, Error: err.Error()})
			case recorded:
				res.Recorded++
			default:
				res.Skipped++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%d of %d accounts failed", len(res.Failed), len(accounts))
	}
	return res, nil
}

// snapshotAccount reports false for accounts without appliances.
func (w *SnapshotWorker) snapshotAccount(ctx context.Context, username string) (bool, error) {
	apps, err := w.svc.Appliances(ctx, username)
	if err != nil {
		return false, err
	}
	if len(apps) == 0 {
		return false, nil
	}
	e, err := w.svc.RecordMonth(ctx, username, HistoryOrigin)
	if err != nil {
		return false, err
	}
	fields := []zap.Field{zap.String("username", username), zap.Int("month", e.MonthIndex), zap.Float64("kwh", e.ConsumptionKWh)}
	if w.state != "" {
		fields = append(fields, zap.String("estimated_bill", w.svc.Tariffs().Bill(e.ConsumptionKWh, w.state).Rounded))
	}
	w.log.Debug("snapshot recorded", fields...)
	return true, nil
}

// Run executes RunOnce on sched until ctx is cancelled. The first run
// happens at the first scheduled time, not immediately.
func (w *SnapshotWorker) Run(ctx context.Context, sched Schedule) error {
	w.log.Info("snapshot worker starting")
	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if _, err := w.RunOnce(ctx); err != nil {
			if errors.Is(err, ErrLockHeld) {
				w.log.Info("lock held by another worker, skipping run")
			} else if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}
