package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bher20/ecoenergy/internal/energy"
)

func openBackends(t *testing.T) map[string]Storage {
	t.Helper()
	ctx := context.Background()

	fs, err := NewFileStorage(filepath.Join(t.TempDir(), "user_data.json"))
	if err != nil {
		t.Fatalf("open file storage: %v", err)
	}
	gs, err := Open(ctx, Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite storage: %v", err)
	}
	t.Cleanup(func() { gs.Close() })

	return map[string]Storage{
		"memory": NewMemory(),
		"file":   fs,
		"sqlite": gs,
	}
}

func sampleAppliances() []energy.Appliance {
	return []energy.Appliance{
		{ID: "a1", Name: "Geladeira", PowerWatts: 150, HoursPerDay: 24, Quantity: 1, Area: energy.AreaHomeAppliances},
		{ID: "a2", Name: "Televisão", PowerWatts: 100, HoursPerDay: 5, Quantity: 2, Area: energy.AreaEntertainment},
		{ID: "a3", Name: "Geladeira", PowerWatts: 300, HoursPerDay: 24, Quantity: 1, Area: energy.AreaHomeAppliances},
	}
}

func TestStorage_AccountLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.CreateAccount(ctx, Account{Username: "ana", PasswordHash: "h1", Role: RoleUser}); err != nil {
				t.Fatalf("CreateAccount failed: %v", err)
			}
			err := st.CreateAccount(ctx, Account{Username: "ana", PasswordHash: "other"})
			if !errors.Is(err, ErrDuplicateAccount) {
				t.Fatalf("expected ErrDuplicateAccount, got %v", err)
			}

			acc, err := st.GetAccount(ctx, "ana")
			if err != nil || acc == nil {
				t.Fatalf("GetAccount failed: %v %v", acc, err)
			}
			if acc.PasswordHash != "h1" {
				t.Errorf("duplicate registration changed the hash: %q", acc.PasswordHash)
			}

			missing, err := st.GetAccount(ctx, "bruno")
			if err != nil || missing != nil {
				t.Fatalf("expected (nil, nil) for a missing account, got %v %v", missing, err)
			}

			if err := st.UpdatePasswordHash(ctx, "ana", "h2"); err != nil {
				t.Fatalf("UpdatePasswordHash failed: %v", err)
			}
			if acc, _ := st.GetAccount(ctx, "ana"); acc.PasswordHash != "h2" {
				t.Errorf("hash not updated: %q", acc.PasswordHash)
			}
			if err := st.UpdatePasswordHash(ctx, "bruno", "x"); !errors.Is(err, ErrAccountNotFound) {
				t.Errorf("expected ErrAccountNotFound, got %v", err)
			}
		})
	}
}

func TestStorage_AppliancesPreserveOrder(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.CreateAccount(ctx, Account{Username: "ana", PasswordHash: "h"}); err != nil {
				t.Fatal(err)
			}
			for _, a := range sampleAppliances() {
				if err := st.AddAppliance(ctx, "ana", a); err != nil {
					t.Fatalf("AddAppliance failed: %v", err)
				}
			}
			got, err := st.ListAppliances(ctx, "ana")
			if err != nil {
				t.Fatalf("ListAppliances failed: %v", err)
			}
			want := sampleAppliances()
			if len(got) != len(want) {
				t.Fatalf("expected %d appliances, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("appliance %d: want %+v got %+v", i, want[i], got[i])
				}
			}

			if _, err := st.AppendHistory(ctx, "ana", func(n int) HistoryEntry {
				return HistoryEntry{MonthIndex: n + 1, ConsumptionKWh: 10}
			}); err != nil {
				t.Fatal(err)
			}
			if err := st.ClearAppliances(ctx, "ana"); err != nil {
				t.Fatalf("ClearAppliances failed: %v", err)
			}
			if got, _ := st.ListAppliances(ctx, "ana"); len(got) != 0 {
				t.Errorf("expected no appliances after clear, got %d", len(got))
			}
			if h, _ := st.ListHistory(ctx, "ana"); len(h) != 1 {
				t.Errorf("clearing appliances must keep history, got %d entries", len(h))
			}

			if err := st.AddAppliance(ctx, "bruno", want[0]); !errors.Is(err, ErrAccountNotFound) {
				t.Errorf("expected ErrAccountNotFound, got %v", err)
			}
			if _, err := st.ListAppliances(ctx, "bruno"); !errors.Is(err, ErrAccountNotFound) {
				t.Errorf("expected ErrAccountNotFound, got %v", err)
			}
		})
	}
}

func TestStorage_ConcurrentAppendHistory(t *testing.T) {
	ctx := context.Background()
	const n = 20
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.CreateAccount(ctx, Account{Username: "ana", PasswordHash: "h"}); err != nil {
				t.Fatal(err)
			}
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(v float64) {
					defer wg.Done()
					_, err := st.AppendHistory(ctx, "ana", func(count int) HistoryEntry {
						return HistoryEntry{MonthIndex: count + 1, ConsumptionKWh: v}
					})
					errs <- err
				}(float64(i))
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				if err != nil {
					t.Fatalf("AppendHistory failed: %v", err)
				}
			}

			h, err := st.ListHistory(ctx, "ana")
			if err != nil {
				t.Fatal(err)
			}
			if len(h) != n {
				t.Fatalf("expected %d entries, got %d", n, len(h))
			}
			for i, e := range h {
				if e.MonthIndex != i+1 {
					t.Fatalf("entry %d has month index %d", i, e.MonthIndex)
				}
			}
		})
	}
}

func TestStorage_Tokens(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.CreateToken(ctx, Token{ID: "t1", Username: "ana", TokenHash: "abc"}); err != nil {
				t.Fatalf("CreateToken failed: %v", err)
			}
			tok, err := st.GetTokenByHash(ctx, "abc")
			if err != nil || tok == nil || tok.ID != "t1" {
				t.Fatalf("GetTokenByHash: %v %v", tok, err)
			}
			if err := st.UpdateTokenLastUsed(ctx, "t1"); err != nil {
				t.Fatalf("UpdateTokenLastUsed failed: %v", err)
			}
			if tok, _ := st.GetTokenByHash(ctx, "abc"); tok.LastUsedAt == nil {
				t.Errorf("last used not recorded")
			}
			if err := st.DeleteToken(ctx, "t1"); err != nil {
				t.Fatal(err)
			}
			if tok, err := st.GetTokenByHash(ctx, "abc"); err != nil || tok != nil {
				t.Errorf("expected deleted token to be gone, got %v %v", tok, err)
			}
		})
	}
}

func TestFileStorage_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "user_data.json")
	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	accounts, _ := fs.ListAccounts(context.Background())
	if len(accounts) != 0 {
		t.Fatalf("expected empty store, got %v", accounts)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("opening must not create the file")
	}
}

func TestFileStorage_ReopenRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "user_data.json")
	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateAccount(ctx, Account{Username: "ana", PasswordHash: "h", Role: RoleUser}); err != nil {
		t.Fatal(err)
	}
	for _, a := range sampleAppliances() {
		if err := fs.AddAppliance(ctx, "ana", a); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := fs.AppendHistory(ctx, "ana", func(n int) HistoryEntry {
			return HistoryEntry{MonthIndex: n + 1, ConsumptionKWh: float64(n) * 1.5}
		}); err != nil {
			t.Fatal(err)
		}
	}

	reopened, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, _ := reopened.ListAppliances(ctx, "ana")
	want := sampleAppliances()
	if len(got) != len(want) {
		t.Fatalf("expected %d appliances, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("appliance %d: want %+v got %+v", i, want[i], got[i])
		}
	}
	h, _ := reopened.ListHistory(ctx, "ana")
	if len(h) != 3 || h[2].MonthIndex != 3 || h[2].ConsumptionKWh != 3 {
		t.Errorf("unexpected history after reopen: %+v", h)
	}
	acc, _ := reopened.GetAccount(ctx, "ana")
	if acc == nil || acc.Role != RoleUser {
		t.Errorf("unexpected account after reopen: %+v", acc)
	}
}

func TestFileStorage_FailedWriteLeavesNoState(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "sub")
	path := filepath.Join(dir, "user_data.json")
	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatal(err)
	}

	// A regular file where the directory should be makes every write fail.
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateAccount(ctx, Account{Username: "ana", PasswordHash: "h", Role: RoleUser}); err == nil {
		t.Fatalf("expected the write to fail")
	}
	if acc, _ := fs.GetAccount(ctx, "ana"); acc != nil {
		t.Fatalf("failed registration left the account in memory: %+v", acc)
	}

	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}
	if err := fs.CreateAccount(ctx, Account{Username: "ana", PasswordHash: "h", Role: RoleUser}); err != nil {
		t.Fatalf("retry after a failed write: %v", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fs.AddAppliance(ctx, "ana", sampleAppliances()[0]); err == nil {
		t.Fatalf("expected the write to fail")
	}
	if got, _ := fs.ListAppliances(ctx, "ana"); len(got) != 0 {
		t.Fatalf("failed write left appliances in memory: %+v", got)
	}
	if acc, _ := fs.GetAccount(ctx, "ana"); acc == nil {
		t.Fatalf("rollback dropped an account that was already saved")
	}

	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}
	if err := fs.AddAppliance(ctx, "ana", sampleAppliances()[0]); err != nil {
		t.Fatalf("retry after a failed write: %v", err)
	}
	reopened, err := NewFileStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := reopened.ListAppliances(ctx, "ana"); len(got) != 1 {
		t.Fatalf("expected 1 appliance on disk, got %+v", got)
	}
}

func TestFileStorage_ReadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	doc := `{"joao": {"password": "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
		"aparelhos": [{"nome": "Lâmpada LED", "potencia": 10, "horas": 5.5, "quantidade": 4, "area": "Iluminação e Pequenos Aparelhos"},
		              {"nome": "Bomba", "potencia": 750, "horas": 1, "quantidade": 1, "area": "Quintal"}],
		"historico": [{"mes": 1, "consumo": 12.5}, {"mes": 2, "consumo": 30}]}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	apps, err := fs.ListAppliances(ctx, "joao")
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 2 || apps[0].Name != "Lâmpada LED" || apps[0].HoursPerDay != 5.5 || apps[0].Quantity != 4 {
		t.Fatalf("unexpected appliances: %+v", apps)
	}
	if apps[0].ID == "" {
		t.Errorf("legacy appliances should receive ids")
	}
	if apps[1].Area != energy.AreaOther {
		t.Errorf("unknown area should map to %q, got %q", energy.AreaOther, apps[1].Area)
	}
	h, _ := fs.ListHistory(ctx, "joao")
	if len(h) != 2 || h[1].MonthIndex != 2 || h[1].ConsumptionKWh != 30 {
		t.Errorf("unexpected history: %+v", h)
	}
	acc, _ := fs.GetAccount(ctx, "joao")
	if acc.Role != RoleUser {
		t.Errorf("legacy accounts default to role %q, got %q", RoleUser, acc.Role)
	}
}

func TestFileStorage_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStorage(path); err == nil {
		t.Fatalf("expected an error for a corrupt document")
	}
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	src := NewMemory()
	dst := NewMemory()
	for _, u := range []string{"ana", "bruno"} {
		if err := src.CreateAccount(ctx, Account{Username: u, PasswordHash: "h"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range sampleAppliances() {
		_ = src.AddAppliance(ctx, "ana", a)
	}
	_, _ = src.AppendHistory(ctx, "ana", func(n int) HistoryEntry { return HistoryEntry{MonthIndex: n + 1, ConsumptionKWh: 42} })
	if err := dst.CreateAccount(ctx, Account{Username: "bruno", PasswordHash: "keep"}); err != nil {
		t.Fatal(err)
	}

	copied, skipped, err := Copy(ctx, dst, src)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if copied != 1 || len(skipped) != 1 || skipped[0] != "bruno" {
		t.Fatalf("unexpected copy result: copied=%d skipped=%v", copied, skipped)
	}
	apps, _ := dst.ListAppliances(ctx, "ana")
	if len(apps) != 3 {
		t.Errorf("expected 3 appliances copied, got %d", len(apps))
	}
	h, _ := dst.ListHistory(ctx, "ana")
	if len(h) != 1 || h[0].ConsumptionKWh != 42 {
		t.Errorf("unexpected copied history: %+v", h)
	}
	if acc, _ := dst.GetAccount(ctx, "bruno"); acc.PasswordHash != "keep" {
		t.Errorf("existing account overwritten")
	}
}

func TestMemoryStorage_AdvisoryLock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ok, _ := m.AcquireAdvisoryLock(ctx, 7)
	if !ok {
		t.Fatalf("first acquire should succeed")
	}
	if ok, _ := m.AcquireAdvisoryLock(ctx, 7); ok {
		t.Fatalf("second acquire should fail while held")
	}
	if ok, _ := m.ReleaseAdvisoryLock(ctx, 7); !ok {
		t.Fatalf("release should report the lock was held")
	}
	if ok, _ := m.AcquireAdvisoryLock(ctx, 7); !ok {
		t.Fatalf("acquire after release should succeed")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mongo"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestGormStorage_AdvisoryLockAcrossReplicas(t *testing.T) {
	dsn := os.Getenv("ECOENERGY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ECOENERGY_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	a, err := NewGormStorage("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewGormStorage("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	const key = 9042
	if ok, err := a.AcquireAdvisoryLock(ctx, key); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := a.AcquireAdvisoryLock(ctx, key); ok {
		t.Fatalf("lock acquired twice by the same replica")
	}
	if ok, _ := b.AcquireAdvisoryLock(ctx, key); ok {
		t.Fatalf("second replica acquired a held lock")
	}

	// Spread queries over the pool so release cannot rely on reusing the
	// connection by chance.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Ping(ctx)
		}()
	}
	wg.Wait()

	if ok, err := a.ReleaseAdvisoryLock(ctx, key); err != nil || !ok {
		t.Fatalf("release: ok=%v err=%v", ok, err)
	}
	if ok, err := b.AcquireAdvisoryLock(ctx, key); err != nil || !ok {
		t.Fatalf("second replica could not take the released lock: ok=%v err=%v", ok, err)
	}
	if ok, _ := b.ReleaseAdvisoryLock(ctx, key); !ok {
		t.Fatalf("second replica release failed")
	}
	if ok, _ := b.ReleaseAdvisoryLock(ctx, key); ok {
		t.Fatalf("releasing an unheld lock must report false")
	}
}

func TestGormStorage_SQLiteLockIsNoop(t *testing.T) {
	ctx := context.Background()
	st, err := NewGormStorage("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	for i := 0; i < 2; i++ {
		if ok, err := st.AcquireAdvisoryLock(ctx, 1); err != nil || !ok {
			t.Fatalf("sqlite acquire: ok=%v err=%v", ok, err)
		}
	}
	if ok, err := st.ReleaseAdvisoryLock(ctx, 1); err != nil || !ok {
		t.Fatalf("sqlite release: ok=%v err=%v", ok, err)
	}
}
