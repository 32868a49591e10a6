// Package util provides common utility functions used across the velofit engine.
package util

import (
	"fmt"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
// Some embed hosts relay JSON payloads with doubled quoting.
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArgs trims and unescapes every bridge argument in place.
func CleanArgs(args []string) []string {
	for i, v := range args {
		args[i] = FixEscapeQuotes(TrimQuotes(v))
	}
	return args
}

// SanitizeFilename replaces characters that are unsafe in snapshot and
// report file names.
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

// FormatDegrees renders an angle for labels and table rows.
func FormatDegrees(deg float64) string {
	return fmt.Sprintf("%.1f°", deg)
}
