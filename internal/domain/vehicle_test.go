package domain

import "testing"

func TestNormalizeVehicle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"UK07-TA 1234", "UK07TA1234"},
		{"uk07ta1234", "UK07TA1234"},
		{"  UK 07 TA 1234  ", "UK07TA1234"},
		{"UK07/TA/1234", "UK07TA1234"},
		{"UK07TA1234", "UK07TA1234"},
		{"---", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeVehicle(c.in); got != c.want {
			t.Fatalf("NormalizeVehicle(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeVehicle_Idempotent(t *testing.T) {
	in := "uk 07-ta.1234"
	once := NormalizeVehicle(in)
	if twice := NormalizeVehicle(once); twice != once {
		t.Fatalf("normalization not idempotent: %q -> %q", once, twice)
	}
}
