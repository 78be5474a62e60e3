package cron

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bher20/ecoenergy/internal/alerting"
	"github.com/bher20/ecoenergy/internal/config"
	"github.com/bher20/ecoenergy/internal/consumption"
	"github.com/bher20/ecoenergy/internal/energy"
	"github.com/bher20/ecoenergy/internal/storage"
)

func TestParseSchedule(t *testing.T) {
	from := time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC)

	s, err := ParseSchedule("90")
	require.NoError(t, err)
	require.Equal(t, from.Add(90*time.Second), s.Next(from))

	s, err = ParseSchedule("1h")
	require.NoError(t, err)
	require.Equal(t, from.Add(time.Hour), s.Next(from))

	s, err = ParseSchedule("0 0 1 * *")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), s.Next(from))

	_, err = ParseSchedule("")
	require.ErrorIs(t, err, ErrNoSchedule)
	for _, bad := range []string{"0", "-5", "-1m", "every tuesday"} {
		_, err = ParseSchedule(bad)
		require.Error(t, err, bad)
	}
}

func seed(t *testing.T) (*storage.MemoryStorage, *consumption.Service) {
	t.Helper()
	ctx := context.Background()
	st := storage.NewMemory()
	svc := consumption.NewService(st, nil, nil)
	for _, u := range []string{"ana", "bia", "caio"} {
		require.NoError(t, st.CreateAccount(ctx, storage.Account{Username: u, PasswordHash: "h"}))
	}
	for _, u := range []string{"ana", "bia"} {
		_, err := svc.AddAppliance(ctx, u, energy.Appliance{Name: "Geladeira", PowerWatts: 150, HoursPerDay: 24, Quantity: 1})
		require.NoError(t, err)
	}
	return st, svc
}

func TestRunOnce_RecordsAccountsWithAppliances(t *testing.T) {
	ctx := context.Background()
	st, svc := seed(t)
	w := NewSnapshotWorker(st, svc, nil, "São Paulo", nil)

	res, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Recorded)
	require.Equal(t, 1, res.Skipped)
	require.Empty(t, res.Failed)

	_, err = w.RunOnce(ctx)
	require.NoError(t, err)
	hist, err := svc.History(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, 2, hist[1].MonthIndex)
	require.InDelta(t, 108.0, hist[1].ConsumptionKWh, 1e-9)

	hist, err = svc.History(ctx, "caio")
	require.NoError(t, err)
	require.Empty(t, hist)

	job := st.ScheduledJob(JobName)
	require.NotNil(t, job)
	require.Equal(t, 1, job.LastSuccess)
}

func TestRunOnce_LockHeld(t *testing.T) {
	ctx := context.Background()
	st, svc := seed(t)
	ok, err := st.AcquireAdvisoryLock(ctx, lockKey)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = NewSnapshotWorker(st, svc, nil, "", nil).RunOnce(ctx)
	require.ErrorIs(t, err, ErrLockHeld)
}

// failingStore fails appliance listing for one account.
type failingStore struct {
	*storage.MemoryStorage
	bad string
}

func (f failingStore) ListAppliances(ctx context.Context, username string) ([]energy.Appliance, error) {
	if username == f.bad {
		return nil, errors.New("disk on fire")
	}
	return f.MemoryStorage.ListAppliances(ctx, username)
}

func TestRunOnce_AlertsOnFailure(t *testing.T) {
	var alerts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { alerts.Add(1) }))
	defer srv.Close()

	mem, _ := seed(t)
	st := failingStore{MemoryStorage: mem, bad: "bia"}
	svc := consumption.NewService(st, nil, nil)
	alerter := alerting.NewAlerter(config.AlertConfig{WebhookURL: srv.URL}, nil)

	res, err := NewSnapshotWorker(st, svc, alerter, "", nil).RunOnce(context.Background())
	require.ErrorContains(t, err, "1 of 3 accounts failed")
	require.Equal(t, 1, res.Recorded)
	require.Len(t, res.Failed, 1)
	require.Equal(t, "bia", res.Failed[0].Username)
	require.EqualValues(t, 1, alerts.Load())

	job := mem.ScheduledJob(JobName)
	require.NotNil(t, job)
	require.Equal(t, 0, job.LastSuccess)
}

func TestRun_StopsOnCancel(t *testing.T) {
	st, svc := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewSnapshotWorker(st, svc, nil, "", nil).Run(ctx, every(10*time.Millisecond)) }()

	require.Eventually(t, func() bool { return st.ScheduledJob(JobName) != nil }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
