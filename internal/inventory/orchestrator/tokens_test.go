package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokens_RecognisesAliases(t *testing.T) {
	p, ok := ParseTokens("ITM:123 QTY:4 B:LOT9 WH:1 EXP:2026-01-01 PD:20250101 TLID:7")
	require.True(t, ok)
	require.NotNil(t, p.ItemID)
	assert.EqualValues(t, 123, *p.ItemID)
	require.NotNil(t, p.Qty)
	assert.Equal(t, 4, *p.Qty)
	require.NotNil(t, p.BatchCode)
	assert.Equal(t, "LOT9", *p.BatchCode)
	require.NotNil(t, p.WarehouseID)
	assert.EqualValues(t, 1, *p.WarehouseID)
	require.NotNil(t, p.ExpiryDate)
	assert.Equal(t, "2026-01-01", *p.ExpiryDate)
	require.NotNil(t, p.ProductionDate)
	assert.Equal(t, "20250101", *p.ProductionDate)
	require.NotNil(t, p.TraceLineID)
	assert.EqualValues(t, 7, *p.TraceLineID)
}

func TestParseTokens_NoRecognisedTokenFallsThrough(t *testing.T) {
	_, ok := ParseTokens("0112345678901231172512311030LOT9")
	assert.False(t, ok)
}

func TestParseTokens_IgnoresUnknownKeysButKeepsKnownOnes(t *testing.T) {
	p, ok := ParseTokens("FOO:bar ITM:5")
	require.True(t, ok)
	require.NotNil(t, p.ItemID)
	assert.EqualValues(t, 5, *p.ItemID)
}

func TestParseTokens_EmptyPayload(t *testing.T) {
	_, ok := ParseTokens("")
	assert.False(t, ok)
}

func TestParseTokens_NonNumericItemIsDropped(t *testing.T) {
	p, ok := ParseTokens("ITM:abc QTY:2")
	require.True(t, ok)
	assert.Nil(t, p.ItemID)
	require.NotNil(t, p.Qty)
	assert.Equal(t, 2, *p.Qty)
}
