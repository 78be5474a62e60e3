// Package energy converts appliance usage into monthly kWh consumption.
package energy

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Area groups appliances the same way the calculator tabs do.
type Area string

const (
	AreaHomeAppliances Area = "Eletrodomésticos"
	AreaEntertainment  Area = "Entretenimento e Eletrônicos"
	AreaLighting       Area = "Iluminação e Pequenos Aparelhos"
	AreaOther          Area = "Outros Equipamentos"
)

// Areas returns the four appliance areas in display order.
func Areas() []Area {
	return []Area{AreaHomeAppliances, AreaEntertainment, AreaLighting, AreaOther}
}

// ParseArea maps a free-form area name onto a known Area. Unknown values
// resolve to AreaOther instead of failing.
func ParseArea(s string) Area {
	s = strings.TrimSpace(s)
	for _, a := range Areas() {
		if strings.EqualFold(s, string(a)) {
			return a
		}
	}
	return AreaOther
}

// Valid reports whether a is one of the four known areas.
func (a Area) Valid() bool {
	for _, known := range Areas() {
		if a == known {
			return true
		}
	}
	return false
}

// MaxHoursPerDay bounds HoursPerDay.
const MaxHoursPerDay = 24

// ErrInvalidInput is returned for appliance values outside their allowed range.
var ErrInvalidInput = errors.New("invalid input")

// Appliance is one line of a user's appliance list.
type Appliance struct {
	// ID identifies a single entry; two entries may share the same Name.
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	PowerWatts  float64 `json:"power_watts"`
	HoursPerDay float64 `json:"hours_per_day"`
	Quantity    int     `json:"quantity"`
	Area        Area    `json:"area"`
}

// Validate checks the numeric invariants of an appliance.
func (a Appliance) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: appliance name is required", ErrInvalidInput)
	}
	if math.IsNaN(a.PowerWatts) || math.IsInf(a.PowerWatts, 0) || a.PowerWatts < 0 {
		return fmt.Errorf("%w: power of %q must be a non-negative number, got %v", ErrInvalidInput, a.Name, a.PowerWatts)
	}
	if math.IsNaN(a.HoursPerDay) || a.HoursPerDay < 0 || a.HoursPerDay > MaxHoursPerDay {
		return fmt.Errorf("%w: hours per day of %q must be between 0 and %d, got %v", ErrInvalidInput, a.Name, MaxHoursPerDay, a.HoursPerDay)
	}
	if a.Quantity < 1 {
		return fmt.Errorf("%w: quantity of %q must be at least 1, got %d", ErrInvalidInput, a.Name, a.Quantity)
	}
	return nil
}
