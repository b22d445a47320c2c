package utils

import "testing"

func TestRoundTo(t *testing.T) {
	tests := []struct {
		x      float64
		places int
		want   float64
	}{
		{4.8, 2, 4.80},
		{3333.3333, 2, 3333.33},
		{1666.6666, 2, 1666.67},
		{0.005, 2, 0.01},
		{12.5, 0, 13},
	}
	for _, tt := range tests {
		if got := RoundTo(tt.x, tt.places); got != tt.want {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", tt.x, tt.places, got, tt.want)
		}
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		value, max float64
		width      int
		want       int
	}{
		{10, 10, 40, 40},
		{5, 10, 40, 20},
		{0.001, 10, 40, 1},
		{0, 10, 40, 0},
		{3, 0, 40, 0},
		{20, 10, 40, 40},
		{5, 10, 0, 0},
	}
	for _, tt := range tests {
		if got := Scale(tt.value, tt.max, tt.width); got != tt.want {
			t.Errorf("Scale(%v, %v, %d) = %d, want %d", tt.value, tt.max, tt.width, got, tt.want)
		}
	}
}
