package core

import "strconv"

// formatSamplingKey renders a numeric sampling ID for error keys and
// violation entity IDs.
func formatSamplingKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
