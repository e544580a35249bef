// Package units renders byte counts for display.
package units

import (
	"math"
	"strconv"
)

var byteUnits = [...]string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes picks the largest unit whose scaled value, rounded to one
// decimal, stays below 1024, followed by suffix ("/s" for rates). Values of
// 1024 TB and above are still shown in TB.
func FormatBytes(n uint64, suffix string) string {
	unit := 0
	value := float64(n)
	for unit < len(byteUnits)-1 && math.Round(value*10)/10 >= 1024 {
		value /= 1024
		unit++
	}

	return strconv.FormatFloat(value, 'f', 1, 64) + byteUnits[unit] + suffix
}

// FormatRate formats a per-second byte rate.
func FormatRate(bytesPerSecond uint64) string {
	return FormatBytes(bytesPerSecond, "/s")
}

// FormatUsage renders "<used> / <total>".
func FormatUsage(used, total uint64) string {
	return FormatBytes(used, "") + " / " + FormatBytes(total, "")
}
