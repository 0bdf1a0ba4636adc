package orchestrator

import "time"

// ParseDate accepts either compact yyyymmdd or ISO 8601 (yyyy-mm-dd) date
// tokens, the two forms PD/EXP fields accept.
func ParseDate(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, false
	}
	if t, err := time.Parse("20060102", raw); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true
	}
	return nil, false
}
