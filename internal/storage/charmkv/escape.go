package charmkv

import "net/url"

func escapePart(s string) string {
	return url.PathEscape(s)
}

// DecodePart reverses the escaping applied to one key part
func DecodePart(s string) (string, error) {
	return url.PathUnescape(s)
}
