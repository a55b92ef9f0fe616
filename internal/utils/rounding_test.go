package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		places   int32
		expected float64
	}{
		{name: "money half up", value: 1.005, places: 2, expected: 1.01},
		{name: "negative half away from zero", value: -2.345, places: 2, expected: -2.35},
		{name: "quantity four places", value: 3.14159, places: 4, expected: 3.1416},
		{name: "ratio six places", value: 0.0476190476, places: 6, expected: 0.047619},
		{name: "already rounded", value: 15000, places: 2, expected: 15000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Round(tt.value, tt.places))
		})
	}
}

func TestRatioOrNil(t *testing.T) {
	assert.Nil(t, RatioOrNil(decimal.NewFromInt(5), decimal.Zero))
	assert.Nil(t, RatioOrNil(decimal.NewFromInt(5), decimal.NewFromFloat(1e-10)))

	r := RatioOrNil(decimal.NewFromInt(50), decimal.NewFromInt(1000))
	if assert.NotNil(t, r) {
		assert.Equal(t, 0.05, *r)
	}

	r = RatioOrNil(decimal.NewFromInt(50), decimal.NewFromInt(1050))
	if assert.NotNil(t, r) {
		assert.Equal(t, 0.047619, *r)
	}
}
