package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGS1_Parenthesised(t *testing.T) {
	res, ok := ParseGS1("(01)12345678901231(17)251231(10)LOT9")
	require.True(t, ok)
	require.NotNil(t, res.GTIN)
	assert.Equal(t, "12345678901231", *res.GTIN)
	require.NotNil(t, res.ExpiryDate)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), *res.ExpiryDate)
	require.NotNil(t, res.BatchLot)
	assert.Equal(t, "LOT9", *res.BatchLot)
}

func TestParseGS1_Compact(t *testing.T) {
	res, ok := ParseGS1("01123456789012311725123110LOT9")
	require.True(t, ok)
	require.NotNil(t, res.GTIN)
	assert.Equal(t, "12345678901231", *res.GTIN)
	require.NotNil(t, res.ExpiryDate)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), *res.ExpiryDate)
	require.NotNil(t, res.BatchLot)
	assert.Equal(t, "LOT9", *res.BatchLot)
}

func TestParseGS1_CompactTruncatedGTINFallsBack(t *testing.T) {
	_, ok := ParseGS1("01123456")
	assert.False(t, ok)
}

func TestParseGS1_UnrecognisedPayload(t *testing.T) {
	_, ok := ParseGS1("not a barcode at all")
	assert.False(t, ok)
}

func TestParseGS1_ParenthesisedOnlyBatch(t *testing.T) {
	res, ok := ParseGS1("(10)LOT42")
	require.True(t, ok)
	require.NotNil(t, res.BatchLot)
	assert.Equal(t, "LOT42", *res.BatchLot)
	assert.Nil(t, res.GTIN)
	assert.Nil(t, res.ExpiryDate)
}
