package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bher20/ecoenergy/internal/energy"
)

type memAccount struct {
	account    Account
	appliances []energy.Appliance
	history    []HistoryEntry
}

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu       sync.RWMutex
	accounts map[string]*memAccount
	tokens   map[string]Token
	locks    map[int64]bool
	jobs     map[string]ScheduledJob
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		accounts: make(map[string]*memAccount),
		tokens:   make(map[string]Token),
		locks:    make(map[int64]bool),
		jobs:     make(map[string]ScheduledJob),
	}
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) CreateAccount(ctx context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.Username]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Username)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.accounts[a.Username] = &memAccount{account: a}
	return nil
}

func (m *MemoryStorage) GetAccount(ctx context.Context, username string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[username]
	if !ok {
		return nil, nil
	}
	cp := acc.account
	return &cp, nil
}

func (m *MemoryStorage) ListAccounts(ctx context.Context) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		out = append(out, acc.account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemoryStorage) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, err := m.lookup(username)
	if err != nil {
		return err
	}
	acc.account.PasswordHash = hash
	return nil
}

func (m *MemoryStorage) AddAppliance(ctx context.Context, username string, a energy.Appliance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, err := m.lookup(username)
	if err != nil {
		return err
	}
	acc.appliances = append(acc.appliances, a)
	return nil
}

func (m *MemoryStorage) ListAppliances(ctx context.Context, username string) ([]energy.Appliance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, err := m.lookup(username)
	if err != nil {
		return nil, err
	}
	return append([]energy.Appliance(nil), acc.appliances...), nil
}

func (m *MemoryStorage) ClearAppliances(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, err := m.lookup(username)
	if err != nil {
		return err
	}
	acc.appliances = nil
	return nil
}

func (m *MemoryStorage) AppendHistory(ctx context.Context, username string, next func(count int) HistoryEntry) (*HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, err := m.lookup(username)
	if err != nil {
		return nil, err
	}
	e := next(len(acc.history))
	acc.history = append(acc.history, e)
	return &e, nil
}

func (m *MemoryStorage) ListHistory(ctx context.Context, username string) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, err := m.lookup(username)
	if err != nil {
		return nil, err
	}
	return append([]HistoryEntry(nil), acc.history...), nil
}

// lookup must be called with m.mu held.
func (m *MemoryStorage) lookup(username string) (*memAccount, error) {
	acc, ok := m.accounts[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}
	return acc, nil
}

func (m *MemoryStorage) CreateToken(ctx context.Context, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = token
	return nil
}

func (m *MemoryStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) DeleteToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil
	}
	now := time.Now()
	t.LastUsedAt = &now
	m.tokens[id] = t
	return nil
}

func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	held := m.locks[key]
	delete(m.locks, key)
	return held, nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := 0
	if success {
		status = 1
	}
	m.jobs[name] = ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return nil
}

// ScheduledJob returns the last recorded run of name, or nil.
func (m *MemoryStorage) ScheduledJob(name string) *ScheduledJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[name]
	if !ok {
		return nil
	}
	return &j
}
