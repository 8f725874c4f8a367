package media

import "strings"

const (
	// Placeholder names files whose title and id sanitize to nothing.
	Placeholder = "file"
	// MaxNameLength caps sanitized names, in characters.
	MaxNameLength = 120

	separators = "._-"
)

// SanitizeFilename maps name onto [A-Za-z0-9._-], trims separators from both
// ends and caps the length. It is idempotent and never returns "".
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isSafeRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), separators)
	if len(out) > MaxNameLength {
		out = strings.Trim(out[:MaxNameLength], separators)
	}
	if out == "" {
		return Placeholder
	}
	return out
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}

// BaseName picks the naming source for a download: title, then id, then the placeholder.
func BaseName(title *string, id string) string {
	if title != nil && strings.TrimSpace(*title) != "" {
		return SanitizeFilename(*title)
	}
	if strings.TrimSpace(id) != "" {
		return SanitizeFilename(id)
	}
	return Placeholder
}
