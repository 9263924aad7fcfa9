package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in        string
		inclusive bool
		want      time.Time
	}{
		{"2024-04-10", false, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)},
		{"2024-04-10", true, time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC)},
		{"2024-12-31", true, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-04-10T12:00:00+02:00", false, time.Date(2024, 4, 10, 10, 0, 0, 0, time.UTC)},
		{"2024-04-10T12:00:00Z", true, time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in, tt.inclusive)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	for _, bad := range []string{"", "10/04/2024", "2024-13-01", "tomorrow"} {
		_, err := parseDate(bad, false)
		assert.ErrorIs(t, err, ErrInvalidCleanup, bad)
	}
}

func TestCleanupPlan(t *testing.T) {
	p, err := (&CleanupRequest{Mode: ModeRange, StartDate: "2024-04-10", EndDate: "2024-04-10"}).plan()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, p.end.Sub(p.start))

	// An exact instant equal to the start is an empty window.
	_, err = (&CleanupRequest{Mode: ModeRange, StartDate: "2024-04-10", EndDate: "2024-04-10T00:00:00Z"}).plan()
	assert.ErrorIs(t, err, ErrInvalidCleanup)

	p, err = (&CleanupRequest{Mode: ModeOlderThan, OlderThanDays: 30}).plan()
	require.NoError(t, err)
	assert.Equal(t, 30, p.days)
}
