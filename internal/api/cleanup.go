package api

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCleanup is returned for cleanup requests that fail validation.
// Nothing is deleted when it is returned.
var ErrInvalidCleanup = errors.New("invalid cleanup request")

// Cleanup modes.
const (
	ModeOlderThan = "older_than"
	ModeBefore    = "before"
	ModeRange     = "range"
)

const dateLayout = "2006-01-02"

// CleanupRequest selects un-pinned items to delete.
type CleanupRequest struct {
	Mode          string `json:"mode"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	BeforeDate    string `json:"before_date,omitempty"`
	OlderThanDays int    `json:"older_than_days,omitempty"`
}

// cleanupPlan is a validated CleanupRequest.
type cleanupPlan struct {
	mode       string
	days       int
	start, end time.Time
}

func (r *CleanupRequest) plan() (cleanupPlan, error) {
	switch r.Mode {
	case ModeOlderThan:
		if r.OlderThanDays <= 0 {
			return cleanupPlan{}, fmt.Errorf("%w: older_than_days must be greater than 0", ErrInvalidCleanup)
		}
		return cleanupPlan{mode: r.Mode, days: r.OlderThanDays}, nil

	case ModeBefore:
		if r.BeforeDate == "" {
			return cleanupPlan{}, fmt.Errorf("%w: before_date is required", ErrInvalidCleanup)
		}
		before, err := parseDate(r.BeforeDate, false)
		if err != nil {
			return cleanupPlan{}, err
		}
		return cleanupPlan{mode: r.Mode, end: before}, nil

	case ModeRange:
		if r.StartDate == "" || r.EndDate == "" {
			return cleanupPlan{}, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidCleanup)
		}
		start, err := parseDate(r.StartDate, false)
		if err != nil {
			return cleanupPlan{}, err
		}
		end, err := parseDate(r.EndDate, true)
		if err != nil {
			return cleanupPlan{}, err
		}
		if !end.After(start) {
			return cleanupPlan{}, fmt.Errorf("%w: end date must be after start date", ErrInvalidCleanup)
		}
		return cleanupPlan{mode: r.Mode, start: start, end: end}, nil

	default:
		return cleanupPlan{}, fmt.Errorf("%w: unsupported mode %q", ErrInvalidCleanup, r.Mode)
	}
}

// parseDate accepts YYYY-MM-DD (UTC midnight) or RFC 3339. With inclusive
// set, a calendar date is turned into the following midnight so the whole
// day falls inside a half-open window.
func parseDate(s string, inclusive bool) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		if inclusive {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrInvalidCleanup, s)
	}
	return t.UTC(), nil
}
