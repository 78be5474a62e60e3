package storage

import (
	"time"

	"github.com/bher20/ecoenergy/internal/energy"
)

// Roles understood by the authorizer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account is a registered user.
type Account struct {
	Username     string    `json:"username" gorm:"primaryKey;column:username"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	Role         string    `json:"role" gorm:"column:role"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
}

// HistoryEntry is one recorded monthly total. MonthIndex runs 1..N in
// append order.
type HistoryEntry struct {
	MonthIndex     int       `json:"month_index"`
	ConsumptionKWh float64   `json:"consumption_kwh"`
	RecordedAt     time.Time `json:"recorded_at,omitempty"`
}

// Token represents an API access token.
type Token struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id"`
	Username   string     `json:"username" gorm:"index;column:username"`
	TokenHash  string     `json:"-" gorm:"uniqueIndex;column:token_hash"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" gorm:"column:last_used_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// ScheduledJob records the last run of a background job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}

type applianceRow struct {
	Seq         uint    `gorm:"primaryKey;autoIncrement;column:seq"`
	ID          string  `gorm:"uniqueIndex;column:id"`
	Username    string  `gorm:"index;column:username"`
	Name        string  `gorm:"column:name"`
	PowerWatts  float64 `gorm:"column:power_watts"`
	HoursPerDay float64 `gorm:"column:hours_per_day"`
	Quantity    int     `gorm:"column:quantity"`
	Area        string  `gorm:"column:area"`
}

func (applianceRow) TableName() string { return "appliances" }

func (r applianceRow) appliance() energy.Appliance {
	return energy.Appliance{
		ID:          r.ID,
		Name:        r.Name,
		PowerWatts:  r.PowerWatts,
		HoursPerDay: r.HoursPerDay,
		Quantity:    r.Quantity,
		Area:        energy.Area(r.Area),
	}
}

type historyRow struct {
	Username       string    `gorm:"primaryKey;column:username"`
	MonthIndex     int       `gorm:"primaryKey;autoIncrement:false;column:month_index"`
	ConsumptionKWh float64   `gorm:"column:consumption_kwh"`
	RecordedAt     time.Time `gorm:"column:recorded_at"`
}

func (historyRow) TableName() string { return "history_entries" }
