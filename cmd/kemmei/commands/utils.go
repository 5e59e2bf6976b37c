// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Table cell formatting and flag validation helpers
package commands

import (
	"fmt"
	"strings"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// orDash renders an empty table cell as "-"
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// joinOrDash comma-joins values, or "-" when there are none
func joinOrDash(values []string) string {
	return orDash(strings.Join(values, ","))
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
