package utils

import "strings"

// NormalizeTag folds a vehicle type tag into the form used for comparison:
// trimmed, inner whitespace collapsed, lower case.
func NormalizeTag(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
