package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorstCondition(t *testing.T) {
	tests := []struct {
		name         string
		descriptions []string
		expected     string
	}{
		{"ice beats snow", []string{"Snow Packed", "Icy Spots"}, "Icy Spots"},
		{"snow beats wet", []string{"Wet", "Blowing Snow"}, "Blowing Snow"},
		{"slush beats wet", []string{"Wet", "Slushy"}, "Slushy"},
		{"single wet", []string{"Wet"}, "Wet"},
		{"dry reports absence", []string{"Dry"}, ""},
		{"unrecognized reports absence", []string{"Fair", "Good Visibility"}, ""},
		{"empty input", nil, ""},
		{"ties keep first-seen literal", []string{"Snow Packed", "snowy"}, "Snow Packed"},
		{"case-insensitive", []string{"ICE ON BRIDGE"}, "ICE ON BRIDGE"},
		{"mixed with dry", []string{"Dry", "Wet", "Dry"}, "Wet"},
		{"literal text preserved", []string{"  Scattered Slush  "}, "Scattered Slush"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WorstCondition(tt.descriptions))
		})
	}
}

func TestConditionRank(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    int
	}{
		{"icy", "Icy Spots", 5},
		{"ice", "Black Ice", 5},
		{"snow", "Snow Packed", 4},
		{"slush", "Slush on shoulders", 3},
		{"wet", "Wet pavement", 2},
		{"dry", "Dry", 1},
		{"unrecognized", "Good", 0},
		{"worst keyword wins", "wet with icy patches", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, conditionRank(tt.description))
		})
	}
}
