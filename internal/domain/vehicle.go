package domain

// NormalizeVehicle turns a free-text vehicle number into the canonical
// matching key: uppercase, ASCII letters and digits only. This is the join
// key between arrear cases and tax payments and must be applied identically
// everywhere a vehicle number is stored or compared.
func NormalizeVehicle(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'a' && c <= 'z':
			out = append(out, c-('a'-'A'))
		}
	}
	return string(out)
}
