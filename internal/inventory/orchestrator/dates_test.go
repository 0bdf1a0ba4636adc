package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_Compact(t *testing.T) {
	got, ok := ParseDate("20260131")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *got)
}

func TestParseDate_ISO(t *testing.T) {
	got, ok := ParseDate("2026-01-31")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *got)
}

func TestParseDate_Empty(t *testing.T) {
	_, ok := ParseDate("")
	assert.False(t, ok)
}

func TestParseDate_Invalid(t *testing.T) {
	_, ok := ParseDate("not-a-date")
	assert.False(t, ok)
}
