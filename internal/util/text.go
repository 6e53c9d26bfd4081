package util

import "strings"

// SanitizePostgresText strips NUL bytes and invalid UTF-8 so the value
// can be stored in a Postgres text column.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
