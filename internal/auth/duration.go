package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var shortDurationRe = regexp.MustCompile(`^(\d+)([dwh])$`)

// ParseExpiration turns a token lifetime setting into an absolute expiry
// relative to now. Supported formats:
//   - "never" or "" - no expiration (nil)
//   - "30d", "2w", "24h" - days, weeks or hours from now
//   - any Go duration such as "90m" or "2h30m"
//   - "dd/mm/yyyy" or "dd/mm/yyyy HH:MM" - a fixed future date (UTC)
func ParseExpiration(setting string, now time.Time) (*time.Time, error) {
	if setting == "" || setting == "never" {
		return nil, nil
	}

	if dur, err := time.ParseDuration(setting); err == nil {
		if dur <= 0 {
			return nil, fmt.Errorf("token lifetime must be positive: %s", setting)
		}
		t := now.Add(dur)
		return &t, nil
	}

	for _, layout := range []string{"02/01/2006 15:04", "02/01/2006"} {
		if t, err := time.Parse(layout, setting); err == nil {
			if !t.After(now) {
				return nil, fmt.Errorf("expiration date must be in the future: %s", setting)
			}
			return &t, nil
		}
	}

	m := shortDurationRe.FindStringSubmatch(setting)
	if len(m) != 3 {
		return nil, fmt.Errorf("invalid expiration format: %s (use 'never', '30d', '2w', '24h', '25/12/2026', or a Go duration like '30m')", setting)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return nil, fmt.Errorf("invalid number in expiration: %s", setting)
	}

	var unit time.Duration
	switch m[2] {
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	case "h":
		unit = time.Hour
	}
	t := now.Add(time.Duration(n) * unit)
	return &t, nil
}
