package orchestrator

import (
	"regexp"
	"strings"
	"time"
)

// GS1Result is what the GS1 resolution layer extracts: AI 01 (GTIN),
// AI 17 (expiry date), AI 10 (batch/lot)
type GS1Result struct {
	GTIN       *string
	ExpiryDate *time.Time
	BatchLot   *string
}

var parenthesisedAI = regexp.MustCompile(`\((\d{2,4})\)([^(]*)`)

// ParseGS1 accepts both the parenthesised ("(01)12345678901231(17)251231(10)LOT9")
// and compact ("01123456789012311725123110LOT9") forms of AIs 01/17/10.
// AI 10 (batch/lot) is variable-length and, in the compact form, is assumed
// to run to the end of the payload — the standard convention for placing a
// variable field last in a fixed-AI barcode.
func ParseGS1(payload string) (*GS1Result, bool) {
	if strings.Contains(payload, "(") {
		return parseParenthesisedGS1(payload)
	}
	return parseCompactGS1(payload)
}

func parseParenthesisedGS1(payload string) (*GS1Result, bool) {
	matches := parenthesisedAI.FindAllStringSubmatch(payload, -1)
	if len(matches) == 0 {
		return nil, false
	}
	res := &GS1Result{}
	found := false
	for _, m := range matches {
		ai, value := m[1], strings.TrimSpace(m[2])
		switch ai {
		case "01":
			v := value
			res.GTIN = &v
			found = true
		case "17":
			if t, ok := parseGS1Date(value); ok {
				res.ExpiryDate = t
				found = true
			}
		case "10":
			v := value
			res.BatchLot = &v
			found = true
		}
	}
	if !found {
		return nil, false
	}
	return res, true
}

func parseCompactGS1(payload string) (*GS1Result, bool) {
	res := &GS1Result{}
	found := false
	rest := payload

	for len(rest) >= 2 {
		ai := rest[:2]
		switch ai {
		case "01":
			if len(rest) < 2+14 {
				return finalizeCompact(res, found)
			}
			v := rest[2 : 2+14]
			res.GTIN = &v
			rest = rest[2+14:]
			found = true
		case "17":
			if len(rest) < 2+6 {
				return finalizeCompact(res, found)
			}
			if t, ok := parseGS1Date(rest[2 : 2+6]); ok {
				res.ExpiryDate = t
				found = true
			}
			rest = rest[2+6:]
		case "10":
			v := rest[2:]
			res.BatchLot = &v
			found = true
			rest = ""
		default:
			return finalizeCompact(res, found)
		}
	}
	return finalizeCompact(res, found)
}

func finalizeCompact(res *GS1Result, found bool) (*GS1Result, bool) {
	if !found {
		return nil, false
	}
	return res, true
}

// parseGS1Date parses a GS1 AI-17-style yymmdd date.
func parseGS1Date(yymmdd string) (*time.Time, bool) {
	if len(yymmdd) != 6 {
		return nil, false
	}
	t, err := time.Parse("060102", yymmdd)
	if err != nil {
		return nil, false
	}
	return &t, true
}
