package orchestrator

import (
	"strconv"
	"time"
)

// ScanRef builds the scan_ref used as the ref on every ledger entry an
// orchestrated scan produces, truncated to maxLen so it fits the
// persistence column.
func ScanRef(device string, at time.Time, barcode string, maxLen int) string {
	ref := "scan:" + device + ":" + strconv.FormatInt(at.Unix()/60, 10) + ":" + barcode
	if maxLen > 0 && len(ref) > maxLen {
		return ref[:maxLen]
	}
	return ref
}

// OpeningBalanceRef builds the ref ReconcileService.OpeningBalanceBackfill
// writes for one drifting key.
func OpeningBalanceRef(warehouseID, itemID int64, batchCodeKey string) string {
	return "OPEN:" + strconv.FormatInt(warehouseID, 10) + ":" + strconv.FormatInt(itemID, 10) + ":" + batchCodeKey
}
