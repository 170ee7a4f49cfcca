package service

import "testing"

func TestNormalizePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"250000", 250000, true},
		{" 0.75 ETH", 0.75, true},
		{"Rp 1.500", 1.5, true},
		{"abc", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
		{"-5", 5, true},
	}
	for _, tc := range cases {
		got, ok := NormalizePrice(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizePrice(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
