package ui

import "github.com/dustin/go-humanize"

// FormatBytes formats a byte count in IEC units ("1.0 KiB").
func FormatBytes(b int64) string {
	if b < 0 {
		return "-" + FormatBytes(-b)
	}
	return humanize.IBytes(uint64(b))
}
