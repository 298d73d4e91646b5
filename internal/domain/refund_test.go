package domain

import "testing"

func TestRefundFraction_StepFunction(t *testing.T) {
	cases := []struct {
		hours float64
		want  float64
	}{
		{30, 0.9},
		{24, 0.9},
		{23.9, 0.7},
		{18, 0.7},
		{12, 0.7},
		{11.5, 0.5},
		{8, 0.5},
		{6, 0.5},
		{5.9, 0},
		{2, 0},
		{0, 0},
		{-5, 0},
	}
	for _, c := range cases {
		if got := RefundFraction(c.hours); got != c.want {
			t.Fatalf("RefundFraction(%v) = %v, want %v", c.hours, got, c.want)
		}
	}
}

func TestRefundAmount_RoundsToNearest(t *testing.T) {
	if got := RefundAmount(300, 30); got != 270 {
		t.Fatalf("RefundAmount(300, 30h) = %d, want 270", got)
	}
	if got := RefundAmount(300, 18); got != 210 {
		t.Fatalf("RefundAmount(300, 18h) = %d, want 210", got)
	}
	// 0.9 * 555 = 499.5, rounds up
	if got := RefundAmount(555, 25); got != 500 {
		t.Fatalf("RefundAmount(555, 25h) = %d, want 500", got)
	}
	if got := RefundAmount(300, 2); got != 0 {
		t.Fatalf("RefundAmount(300, 2h) = %d, want 0", got)
	}
	if got := RefundAmount(300, -5); got != 0 {
		t.Fatalf("RefundAmount(300, -5h) = %d, want 0", got)
	}
}
