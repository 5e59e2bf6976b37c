package embedded

import (
	"errors"
	"strings"
)

// ErrUnsafeLiteral is returned for values that cannot be embedded in SQL text
var ErrUnsafeLiteral = errors.New("embedded: value cannot be quoted as a SQL literal")

// QuoteLiteral renders s as a single-quoted SQLite string literal.
//
// Bound parameters are used for every row value; this is only for statements
// whose operands SQLite does not accept as parameters in every build (file
// names for ATTACH and VACUUM INTO). Single quotes are doubled; backslashes
// have no special meaning in SQLite literals and pass through unchanged. NUL
// bytes would truncate the statement and are rejected.
func QuoteLiteral(s string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", ErrUnsafeLiteral
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
}
