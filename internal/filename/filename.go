// Package filename turns free-form titles into path components that are safe
// on Windows, macOS and Linux.
package filename

import "strings"

// Sanitize replaces every rune that is not an ASCII letter, digit, underscore
// or hyphen with an underscore. Spaces become underscores as well. The result
// never contains path separators or characters reserved by any common
// filesystem, and Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(title string) string {
	var sb strings.Builder
	sb.Grow(len(title))

	for _, r := range title {
		if isAllowed(r) {
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte('_')
	}

	return sb.String()
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}
