package domain

import "testing"

func TestParseMoneyCents(t *testing.T) {
	cases := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"300", 30000, true},
		{"300.50", 30050, true},
		{"1,234.56", 123456, true},
		{"Rs. 1,500", 150000, true},
		{"₹2500", 250000, true},
		{"-42.10", -4210, true},
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"-", 0, false},
		{".", 0, false},
		{"N/A", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseMoneyCents(c.in)
		if ok != c.wantOK || got != c.want {
			t.Fatalf("ParseMoneyCents(%q) = (%d, %v); want (%d, %v)", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestMoneyCentsOrZero(t *testing.T) {
	if got := MoneyCentsOrZero("bad cell"); got != 0 {
		t.Fatalf("expected 0 for unparseable cell, got %d", got)
	}
	if got := MoneyCentsOrZero("12.34"); got != 1234 {
		t.Fatalf("expected 1234, got %d", got)
	}
}

func TestFormatMoneyCents(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{30000, "300.00"},
		{30050, "300.50"},
		{5, "0.05"},
		{0, "0.00"},
		{-150, "-1.50"},
	}
	for _, c := range cases {
		if got := FormatMoneyCents(c.in); got != c.want {
			t.Fatalf("FormatMoneyCents(%d) = %q; want %q", c.in, got, c.want)
		}
	}
}
