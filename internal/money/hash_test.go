package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePriceTruncatesToEightDecimals(t *testing.T) {
	assert.Equal(t, "30000.123456", EncodePrice(30000.123456))
	assert.Equal(t, "1", EncodePrice(1.0))
	assert.Equal(t, "0.12345678", EncodePrice(0.123456789))
}

func TestDataHashDeterministicRegardlessOfMapOrder(t *testing.T) {
	a := map[string]float64{"binance": 30000, "coinbase": 30010}
	b := map[string]float64{"coinbase": 30010, "binance": 30000}

	h1 := DataHash(a, 5e9, 1e8, 2e8)
	h2 := DataHash(b, 5e9, 1e8, 2e8)
	assert.Equal(t, h1, h2)
}

func TestDataHashChangesWithInputs(t *testing.T) {
	prices := map[string]float64{"binance": 30000}
	h1 := DataHash(prices, 5e9, 1e8, 2e8)
	h2 := DataHash(prices, 5e9, 1e8, 2.1e8)
	assert.NotEqual(t, h1, h2)
}
