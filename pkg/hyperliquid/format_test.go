package hyperliquid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"five significant figures", 1234.5678, 1234.6},
		{"small price keeps precision", 0.0001234567, 0.00012346},
		{"sub-dollar price", 0.123456, 0.12346},
		{"rounds to integer above threshold", 123456.78, 123457},
		{"rounds up across threshold", 99999.99, 100000},
		{"already exact", 50000, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(tt.price))
		})
	}
}

func TestFormatSize(t *testing.T) {
	specs := map[string]models.MarketSpec{
		"BTC":  {SizeDecimals: 5},
		"DOGE": {SizeDecimals: 0},
	}

	assert.Equal(t, 0.12346, FormatSize(specs, "BTC", 0.123456789))
	assert.Equal(t, 124.0, FormatSize(specs, "DOGE", 123.6))
	// Unknown symbols fall back to 3 decimals.
	assert.Equal(t, 1.235, FormatSize(specs, "UNKNOWN", 1.23456))
}
