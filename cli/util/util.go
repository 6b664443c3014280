// Package util provides utility functions for the sizesnap CLI.
package util

import (
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// FormatBytes formats a byte count with thousands separators, e.g. "11,189 B"
func FormatBytes(bytes int) string {
	return humanize.Comma(int64(bytes)) + " B"
}

// FormatSize formats a byte count into a short human-readable string
func FormatSize(bytes int) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// IsTerminal returns true if f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
