package storage

import (
	"context"
	"database/sql"
	sqldriver "database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/bher20/ecoenergy/internal/energy"
)

type GormStorage struct {
	db *gorm.DB

	// Postgres advisory locks belong to a session, so each held lock keeps
	// the connection it was taken on until release.
	lockMu    sync.Mutex
	lockConns map[int64]*sql.Conn
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var gormDialector gorm.Dialector
	switch driver {
	case "postgres":
		gormDialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "ecoenergy.db"
		}
		gormDialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(gormDialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// One connection keeps ":memory:" databases shared and writers
		// serialized.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return &GormStorage{db: db, lockConns: make(map[int64]*sql.Conn)}, nil
}

// Migrate creates or updates the tables with gorm's AutoMigrate. The goose
// migrations in internal/migrate describe the same schema.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&Account{},
		&applianceRow{},
		&historyRow{},
		&Token{},
		&ScheduledJob{},
	)
}

func (s *GormStorage) isPostgres() bool {
	return s.db.Dialector.Name() == "postgres"
}

// Accounts

func (s *GormStorage) CreateAccount(ctx context.Context, a Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Account{}).Where("username = ?", a.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Username)
		}
		if err := tx.Create(&a).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Username)
			}
			return err
		}
		return nil
	})
}

func (s *GormStorage) GetAccount(ctx context.Context, username string) (*Account, error) {
	var acc Account
	result := s.db.WithContext(ctx).First(&acc, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &acc, nil
}

func (s *GormStorage) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	result := s.db.WithContext(ctx).Order("username").Find(&accounts)
	return accounts, result.Error
}

func (s *GormStorage) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	result := s.db.WithContext(ctx).Model(&Account{}).Where("username = ?", username).Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, username)
	}
	return nil
}

// requireAccount fails with ErrAccountNotFound when username is unknown.
// With lock set the account row is locked for the rest of tx on postgres.
func (s *GormStorage) requireAccount(tx *gorm.DB, username string, lock bool) error {
	q := tx
	if lock && s.isPostgres() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var acc Account
	if err := q.First(&acc, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, username)
		}
		return err
	}
	return nil
}

// Appliances

func (s *GormStorage) AddAppliance(ctx context.Context, username string, a energy.Appliance) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAccount(tx, username, false); err != nil {
			return err
		}
		row := applianceRow{
			ID:          a.ID,
			Username:    username,
			Name:        a.Name,
			PowerWatts:  a.PowerWatts,
			HoursPerDay: a.HoursPerDay,
			Quantity:    a.Quantity,
			Area:        string(a.Area),
		}
		return tx.Create(&row).Error
	})
}

func (s *GormStorage) ListAppliances(ctx context.Context, username string) ([]energy.Appliance, error) {
	var out []energy.Appliance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAccount(tx, username, false); err != nil {
			return err
		}
		var rows []applianceRow
		if err := tx.Where("username = ?", username).Order("seq").Find(&rows).Error; err != nil {
			return err
		}
		out = make([]energy.Appliance, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.appliance())
		}
		return nil
	})
	return out, err
}

func (s *GormStorage) ClearAppliances(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAccount(tx, username, false); err != nil {
			return err
		}
		return tx.Where("username = ?", username).Delete(&applianceRow{}).Error
	})
}

// History

func (s *GormStorage) AppendHistory(ctx context.Context, username string, next func(count int) HistoryEntry) (*HistoryEntry, error) {
	var out HistoryEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAccount(tx, username, true); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&historyRow{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		out = next(int(n))
		return tx.Create(&historyRow{
			Username:       username,
			MonthIndex:     out.MonthIndex,
			ConsumptionKWh: out.ConsumptionKWh,
			RecordedAt:     out.RecordedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GormStorage) ListHistory(ctx context.Context, username string) ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireAccount(tx, username, false); err != nil {
			return err
		}
		var rows []historyRow
		if err := tx.Where("username = ?", username).Order("month_index").Find(&rows).Error; err != nil {
			return err
		}
		out = make([]HistoryEntry, 0, len(rows))
		for _, r := range rows {
			out = append(out, HistoryEntry{MonthIndex: r.MonthIndex, ConsumptionKWh: r.ConsumptionKWh, RecordedAt: r.RecordedAt})
		}
		return nil
	})
	return out, err
}

// Tokens

func (s *GormStorage) CreateToken(ctx context.Context, token Token) error {
	return s.db.WithContext(ctx).Create(&token).Error
}

func (s *GormStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	var token Token
	result := s.db.WithContext(ctx).First(&token, "token_hash = ?", hash)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &token, nil
}

func (s *GormStorage) DeleteToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Token{}, "id = ?", id).Error
}

func (s *GormStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&Token{}).Where("id = ?", id).Update("last_used_at", now).Error
}

// Close & Ping

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Scheduled Jobs & Locking

func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if !s.isPostgres() {
		// SQLite has no advisory locks; a single process owns the file.
		return true, nil
	}
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if _, held := s.lockConns[key]; held {
		return false, nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return false, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Close()
		return false, err
	}
	if !ok {
		conn.Close()
		return false, nil
	}
	s.lockConns[key] = conn
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if !s.isPostgres() {
		return true, nil
	}
	s.lockMu.Lock()
	conn, held := s.lockConns[key]
	delete(s.lockConns, key)
	s.lockMu.Unlock()
	if !held {
		return false, nil
	}
	defer conn.Close()

	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok); err != nil {
		// Discard the connection; ending the session drops the lock.
		_ = conn.Raw(func(any) error { return sqldriver.ErrBadConn })
		return false, err
	}
	return ok, nil
}

func (s *GormStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	status := 0
	if success {
		status = 1
	}
	job := ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&job).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

// Stats returns the connection pool statistics of the underlying database.
func (s *GormStorage) Stats() (sql.DBStats, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// Driver returns the gorm dialector name.
func (s *GormStorage) Driver() string { return s.db.Dialector.Name() }
