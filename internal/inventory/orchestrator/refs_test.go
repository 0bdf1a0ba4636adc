package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScanRef_TruncatesToMaxLen(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	ref := ScanRef("handheld-1", at, "a-very-long-barcode-payload-value", 20)
	assert.Len(t, ref, 20)
}

func TestScanRef_StableForSameMinute(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	a := ScanRef("dev", base, "BC1", 0)
	b := ScanRef("dev", base.Add(30*time.Second), "BC1", 0)
	assert.Equal(t, a, b, "two scans in the same minute window produce the same ref")
}

func TestScanRef_DiffersAcrossMinuteBoundary(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	a := ScanRef("dev", base, "BC1", 0)
	b := ScanRef("dev", base.Add(90*time.Second), "BC1", 0)
	assert.NotEqual(t, a, b)
}

func TestOpeningBalanceRef(t *testing.T) {
	ref := OpeningBalanceRef(1, 2, "LOT9")
	assert.Equal(t, "OPEN:1:2:LOT9", ref)
}
