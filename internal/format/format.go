package format

import (
	"fmt"
	"strconv"
	"time"
)

// Elapsed formats a duration as HH:MM:SS or MM:SS.
func Elapsed(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Wait formats a retry or pacing delay for human display.
// Examples: "500ms", "3s", "3.5s", "1m", "1m36s"
func Wait(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
	if d < time.Minute {
		secs := float64(d.Round(100*time.Millisecond)) / float64(time.Second)
		return strconv.FormatFloat(secs, 'f', -1, 64) + "s"
	}
	minutes := d / time.Minute
	seconds := (d % time.Minute) / time.Second
	if seconds > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%dm", minutes)
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise, with one decimal.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	if bytes >= mb {
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	}
	if bytes >= kb {
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

// Progress formats a 1-based position within a batch, e.g. "[3/11]".
func Progress(index, total int) string {
	return fmt.Sprintf("[%d/%d]", index, total)
}
