package reward

import "strconv"

// FormatAmount renders a reward for display: whole dollars at or above $1,
// cent precision below. The raw float is kept everywhere else; rounding
// happens only here, at the final display boundary.
func FormatAmount(amount float64) string {
	if amount >= 1 {
		return strconv.FormatFloat(amount, 'f', 0, 64)
	}
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
