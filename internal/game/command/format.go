package command

import (
	"fmt"
	"math"
	"strconv"
)

// FormatNumber renders a currency or stat value compactly: whole numbers
// below one thousand, then K, M, B, and T with two decimals. Non-finite
// values render as "0".
func FormatNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "0"
	}
	abs := math.Abs(n)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2fT", n/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	}
	return strconv.FormatFloat(math.Floor(n), 'f', 0, 64)
}

// FormatPercent renders a fraction as a whole-number percentage.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

// FormatCooldown renders a skill cooldown, "READY" at zero.
func FormatCooldown(cd float64) string {
	if cd <= 0 {
		return "READY"
	}
	return fmt.Sprintf("%.1fs", cd)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
