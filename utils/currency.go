package utils

import "fmt"

// FormatCents renders an amount in minor units as a human-readable decimal,
// e.g. 123450 -> "1234.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
