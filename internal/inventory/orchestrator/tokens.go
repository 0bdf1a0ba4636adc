// Package orchestrator normalises a scanned barcode payload into a
// structured (mode, item, warehouse, batch_code, qty, dates) tuple through
// three resolution layers — explicit KV tokens, a barcode table lookup, and
// a GS1 parser — before dispatching to a workflow.
package orchestrator

import (
	"strconv"
	"strings"
)

// Parsed is the normalised result of any resolution layer.
type Parsed struct {
	ItemID         *int64
	WarehouseID    *int64
	BatchCode      *string
	Qty            *int
	ProductionDate *string // raw token value; dates.go parses it
	ExpiryDate     *string
	TraceLineID    *int64
}

// keyAliases maps every recognised token key to the field it
// populates.
var keyAliases = map[string]string{
	"ITM": "item", "ITEM": "item", "ITEM_ID": "item",
	"QTY": "qty",
	"B": "batch", "BATCH": "batch", "BATCH_CODE": "batch",
	"PD": "production", "MFG": "production",
	"EXP": "expiry", "EXPIRY": "expiry",
	"WH": "warehouse", "WAREHOUSE": "warehouse", "WAREHOUSE_ID": "warehouse",
	"TLID": "trace_line",
}

// ParseTokens tokenises a whitespace-separated KV payload
// ("ITM:123 QTY:4 B:LOT9 WH:1"). Returns (nil, false) if no recognised
// token is present at all, letting the caller fall through to the next
// resolution layer.
func ParseTokens(payload string) (*Parsed, bool) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return nil, false
	}

	p := &Parsed{}
	matched := false
	for _, f := range fields {
		key, value, ok := splitToken(f)
		if !ok {
			continue
		}
		field, ok := keyAliases[strings.ToUpper(key)]
		if !ok {
			continue
		}
		matched = true
		applyTokenField(p, field, value)
	}
	if !matched {
		return nil, false
	}
	return p, true
}

func splitToken(field string) (key, value string, ok bool) {
	i := strings.IndexByte(field, ':')
	if i < 0 {
		return "", "", false
	}
	return field[:i], field[i+1:], true
}

func applyTokenField(p *Parsed, field, value string) {
	switch field {
	case "item":
		if v, ok := parseInt64(value); ok {
			p.ItemID = &v
		}
	case "warehouse":
		if v, ok := parseInt64(value); ok {
			p.WarehouseID = &v
		}
	case "qty":
		if v, ok := parseInt64(value); ok {
			n := int(v)
			p.Qty = &n
		}
	case "batch":
		v := value
		p.BatchCode = &v
	case "production":
		v := value
		p.ProductionDate = &v
	case "expiry":
		v := value
		p.ExpiryDate = &v
	case "trace_line":
		if v, ok := parseInt64(value); ok {
			p.TraceLineID = &v
		}
	}
}

func parseInt64(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
