package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bher20/ecoenergy/internal/energy"
)

// fileUser is one account in the JSON document, keyed by username:
//
//	{"ana": {"password": "...", "aparelhos": [...], "historico": [...]}}
type fileUser struct {
	Password   string          `json:"password"`
	Role       string          `json:"role,omitempty"`
	Appliances []fileAppliance `json:"aparelhos"`
	History    []fileHistory   `json:"historico,omitempty"`
}

type fileAppliance struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"nome"`
	Power    float64 `json:"potencia"`
	Hours    float64 `json:"horas"`
	Quantity int     `json:"quantidade"`
	Area     string  `json:"area"`
}

type fileHistory struct {
	Month       int        `json:"mes"`
	Consumption float64    `json:"consumo"`
	RecordedAt  *time.Time `json:"registrado_em,omitempty"`
}

// FileStorage keeps accounts in a single JSON document, the user_data.json
// layout, and rewrites it atomically after every mutation. Tokens, locks
// and job runs live in memory only.
type FileStorage struct {
	*MemoryStorage

	path string
	// wmu serializes mutate-then-write so the file always reflects a
	// complete sequence of mutations.
	wmu sync.Mutex
}

// NewFileStorage loads path. A missing file yields an empty store; the file
// is created on the first mutation.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		path = "user_data.json"
	}
	f := &FileStorage{MemoryStorage: NewMemory(), path: path}
	users, err := readUserFile(path)
	if err != nil {
		return nil, err
	}
	for username, u := range users {
		f.accounts[username] = u.toMem(username)
	}
	return f, nil
}

// readUserFile parses a user_data.json document. A missing file is an empty
// document.
func readUserFile(path string) (map[string]fileUser, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]fileUser{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user data: %w", err)
	}
	users := map[string]fileUser{}
	if len(bytes.TrimSpace(b)) == 0 {
		return users, nil
	}
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("decode user data %s: %w", path, err)
	}
	return users, nil
}

func (u fileUser) toMem(username string) *memAccount {
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	acc := &memAccount{account: Account{Username: username, PasswordHash: u.Password, Role: role}}
	for _, a := range u.Appliances {
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		acc.appliances = append(acc.appliances, energy.Appliance{
			ID:          id,
			Name:        a.Name,
			PowerWatts:  a.Power,
			HoursPerDay: a.Hours,
			Quantity:    a.Quantity,
			Area:        energy.ParseArea(a.Area),
		})
	}
	for _, h := range u.History {
		e := HistoryEntry{MonthIndex: h.Month, ConsumptionKWh: h.Consumption}
		if h.RecordedAt != nil {
			e.RecordedAt = *h.RecordedAt
		}
		acc.history = append(acc.history, e)
	}
	return acc
}

// Path returns the JSON document location.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) CreateAccount(ctx context.Context, a Account) error {
	return f.mutate(func() error { return f.MemoryStorage.CreateAccount(ctx, a) })
}

func (f *FileStorage) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	return f.mutate(func() error { return f.MemoryStorage.UpdatePasswordHash(ctx, username, hash) })
}

func (f *FileStorage) AddAppliance(ctx context.Context, username string, a energy.Appliance) error {
	return f.mutate(func() error { return f.MemoryStorage.AddAppliance(ctx, username, a) })
}

func (f *FileStorage) ClearAppliances(ctx context.Context, username string) error {
	return f.mutate(func() error { return f.MemoryStorage.ClearAppliances(ctx, username) })
}

func (f *FileStorage) AppendHistory(ctx context.Context, username string, next func(count int) HistoryEntry) (*HistoryEntry, error) {
	var out *HistoryEntry
	err := f.mutate(func() error {
		e, err := f.MemoryStorage.AppendHistory(ctx, username, next)
		out = e
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mutate applies fn and rewrites the file. When the write fails the
// accounts are restored to their state before fn, so memory never runs
// ahead of the file.
func (f *FileStorage) mutate(fn func() error) error {
	f.wmu.Lock()
	defer f.wmu.Unlock()
	before := f.snapshotAccounts()
	if err := fn(); err != nil {
		return err
	}
	if err := f.save(); err != nil {
		f.mu.Lock()
		f.accounts = before
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *FileStorage) snapshotAccounts() map[string]*memAccount {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]*memAccount, len(f.accounts))
	for username, acc := range f.accounts {
		out[username] = &memAccount{
			account:    acc.account,
			appliances: slices.Clone(acc.appliances),
			history:    slices.Clone(acc.history),
		}
	}
	return out
}

func (f *FileStorage) save() error {
	f.mu.RLock()
	users := make(map[string]fileUser, len(f.accounts))
	for username, acc := range f.accounts {
		u := fileUser{
			Password:   acc.account.PasswordHash,
			Role:       acc.account.Role,
			Appliances: make([]fileAppliance, 0, len(acc.appliances)),
		}
		if u.Role == RoleUser {
			u.Role = ""
		}
		for _, a := range acc.appliances {
			u.Appliances = append(u.Appliances, fileAppliance{
				ID:       a.ID,
				Name:     a.Name,
				Power:    a.PowerWatts,
				Hours:    a.HoursPerDay,
				Quantity: a.Quantity,
				Area:     string(a.Area),
			})
		}
		for _, h := range acc.history {
			fh := fileHistory{Month: h.MonthIndex, Consumption: h.ConsumptionKWh}
			if !h.RecordedAt.IsZero() {
				at := h.RecordedAt
				fh.RecordedAt = &at
			}
			u.History = append(u.History, fh)
		}
		users[username] = u
	}
	f.mu.RUnlock()

	b, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode user data: %w", err)
	}
	if err := writeFileAtomically(f.path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("write user data: %w", err)
	}
	return nil
}

func writeFileAtomically(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
