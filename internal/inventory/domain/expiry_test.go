package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestResolveExpiry_Days(t *testing.T) {
	days := 10
	item := &Item{ShelfLifeDays: &days}
	prod := date(2025, time.January, 1)

	res := ResolveExpiry(item, prod, nil)
	assert.NotNil(t, res.ExpiryDate)
	assert.Equal(t, date(2025, time.January, 11).Format("2006-01-02"), res.ExpiryDate.Format("2006-01-02"))
	assert.False(t, res.ConsistencyFlagged)
}

func TestResolveExpiry_MonthsClampedLastDay(t *testing.T) {
	months := 1
	item := &Item{ShelfLifeMonths: &months}
	prod := date(2025, time.January, 31)

	res := ResolveExpiry(item, prod, nil)
	// Jan 31 + 1 month clamps to Feb 28 (2025 is not a leap year).
	assert.Equal(t, date(2025, time.February, 28).Format("2006-01-02"), res.ExpiryDate.Format("2006-01-02"))
}

func TestResolveExpiry_LeapYear(t *testing.T) {
	months := 1
	item := &Item{ShelfLifeMonths: &months}
	prod := date(2024, time.January, 31)

	res := ResolveExpiry(item, prod, nil)
	assert.Equal(t, date(2024, time.February, 29).Format("2006-01-02"), res.ExpiryDate.Format("2006-01-02"))
}

func TestResolveExpiry_ConsistencyFlagWithinTolerance(t *testing.T) {
	days := 10
	item := &Item{ShelfLifeDays: &days}
	prod := date(2025, time.January, 1)
	provided := date(2025, time.January, 13) // 2 days off computed Jan 11, within tolerance

	res := ResolveExpiry(item, prod, provided)
	assert.False(t, res.ConsistencyFlagged)
	assert.Equal(t, provided, res.ExpiryDate)
}

func TestResolveExpiry_ConsistencyFlagOutsideTolerance(t *testing.T) {
	days := 10
	item := &Item{ShelfLifeDays: &days}
	prod := date(2025, time.January, 1)
	provided := date(2025, time.January, 20) // 9 days off computed Jan 11

	res := ResolveExpiry(item, prod, provided)
	assert.True(t, res.ConsistencyFlagged)
}

func TestResolveExpiry_NoShelfLife(t *testing.T) {
	item := &Item{}
	prod := date(2025, time.January, 1)

	res := ResolveExpiry(item, prod, nil)
	assert.Nil(t, res.ExpiryDate)
}

func TestDatesConsistent(t *testing.T) {
	prod := date(2025, time.January, 1)
	okExpiry := date(2025, time.January, 2)
	badExpiry := date(2024, time.December, 31)

	assert.True(t, DatesConsistent(prod, okExpiry))
	assert.False(t, DatesConsistent(prod, badExpiry))
	assert.True(t, DatesConsistent(nil, okExpiry))
	assert.True(t, DatesConsistent(prod, nil))
}
