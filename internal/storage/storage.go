package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bher20/ecoenergy/internal/energy"
)

var (
	ErrDuplicateAccount = errors.New("account already exists")
	ErrAccountNotFound  = errors.New("account not found")
)

// Storage abstracts persistence for accounts, their appliances and
// consumption history, session tokens and scheduled job bookkeeping.
//
// Lookups that find nothing return (nil, nil). Mutations on an account
// that does not exist return ErrAccountNotFound.
type Storage interface {
	// Accounts
	CreateAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, username string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpdatePasswordHash(ctx context.Context, username, hash string) error

	// Appliances, kept in insertion order.
	AddAppliance(ctx context.Context, username string, a energy.Appliance) error
	ListAppliances(ctx context.Context, username string) ([]energy.Appliance, error)
	ClearAppliances(ctx context.Context, username string) error

	// AppendHistory calls next with the current number of history entries
	// and stores the entry it returns, all while holding the account's
	// write lock or transaction.
	AppendHistory(ctx context.Context, username string, next func(count int) HistoryEntry) (*HistoryEntry, error)
	ListHistory(ctx context.Context, username string) ([]HistoryEntry, error)

	// Tokens
	CreateToken(ctx context.Context, token Token) error
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Scheduled jobs
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	Ping(ctx context.Context) error
	// Close releases any resources (no-op for in-memory).
	Close() error
}
