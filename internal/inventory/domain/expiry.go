package domain

import "time"

// ExpiryResolution is the outcome of deriving/validating a batch's dates.
type ExpiryResolution struct {
	ProductionDate *time.Time
	ExpiryDate     *time.Time
	// ConsistencyFlagged is true when a caller-provided expiry_date disagrees
	// with the computed one by more than the soft tolerance. It never blocks
	// the write; it is surfaced for audit only.
	ConsistencyFlagged bool
}

// consistencyToleranceDays is the soft |computed − provided| bound beyond
// which a discrepancy is flagged for audit but still accepted.
const consistencyToleranceDays = 3

// ResolveExpiry derives an expiry date from a production date for an item
// with a finite shelf life (days, or calendar months using the clamped-
// last-day rule), and reconciles it with any caller-provided expiry.
//
// providedExpiry, if non-nil, is checked against the computed value with a
// ±3-day tolerance; a discrepancy outside that tolerance is flagged but
// never rejected. The hard DateConsistencyError (expiry < production) is
// the caller's responsibility to raise — this function only derives.
func ResolveExpiry(item *Item, productionDate, providedExpiry *time.Time) ExpiryResolution {
	res := ExpiryResolution{ProductionDate: productionDate, ExpiryDate: providedExpiry}

	if productionDate == nil {
		return res
	}

	computed := computeShelfLifeExpiry(item, *productionDate)
	if computed == nil {
		return res
	}

	if providedExpiry == nil {
		res.ExpiryDate = computed
		return res
	}

	diff := providedExpiry.Sub(*computed)
	if diff < 0 {
		diff = -diff
	}
	if diff > consistencyToleranceDays*24*time.Hour {
		res.ConsistencyFlagged = true
	}
	return res
}

// computeShelfLifeExpiry applies the item's shelf life to a production date.
// Days and months are mutually exclusive; days takes precedence if both are
// somehow set, since it is the more precise figure.
func computeShelfLifeExpiry(item *Item, productionDate time.Time) *time.Time {
	if item.ShelfLifeDays != nil && *item.ShelfLifeDays > 0 {
		t := productionDate.AddDate(0, 0, *item.ShelfLifeDays)
		return &t
	}
	if item.ShelfLifeMonths != nil && *item.ShelfLifeMonths > 0 {
		t := addMonthsClampLastDay(productionDate, *item.ShelfLifeMonths)
		return &t
	}
	return nil
}

// addMonthsClampLastDay adds n calendar months to t. When t falls on a day
// that does not exist in the target month (e.g. Jan 31 + 1 month), the
// result clamps to the target month's last day rather than overflowing into
// the following month, which is what AddDate would otherwise do.
func addMonthsClampLastDay(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	targetMonthIndex := int(month) - 1 + months
	targetYear := year + targetMonthIndex/12
	targetMonth := time.Month(targetMonthIndex%12) + 1
	if targetMonthIndex%12 < 0 {
		targetMonth += 12
		targetYear--
	}

	lastDay := lastDayOfMonth(targetYear, targetMonth)
	if day > lastDay {
		day = lastDay
	}
	return time.Date(targetYear, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

// DatesConsistent reports whether expiry is not strictly before production,
// the hard check StockMutator.Adjust enforces on inbound movements.
func DatesConsistent(productionDate, expiryDate *time.Time) bool {
	if productionDate == nil || expiryDate == nil {
		return true
	}
	return !expiryDate.Before(*productionDate)
}
