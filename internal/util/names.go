package util

import (
	"errors"
	"strings"
)

var (
	errEmpty      = errors.New("empty name")
	errLength     = errors.New("name must be 3-63 characters")
	errCharset    = errors.New("name may only contain letters, digits and hyphens")
	errEdge       = errors.New("name must start and end with a letter or digit")
	errDoubleDash = errors.New("name must not contain consecutive hyphens")
)

// reserved containers that do not follow the regular naming rules
var reserved = map[string]bool{"$root": true, "$web": true, "$logs": true}

// NormalizeContainerName lowercases name and checks it against the blob
// service container naming rules.
func NormalizeContainerName(name string) (string, error) {
	n := strings.ToLower(name)
	if n == "" {
		return "", errEmpty
	}
	if reserved[n] {
		return n, nil
	}
	if len(n) < 3 || len(n) > 63 {
		return "", errLength
	}
	for i := 0; i < len(n); i++ {
		ch := n[i]
		if !(ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' || ch == '-') {
			return "", errCharset
		}
	}
	if n[0] == '-' || n[len(n)-1] == '-' {
		return "", errEdge
	}
	if strings.Contains(n, "--") {
		return "", errDoubleDash
	}
	return n, nil
}
