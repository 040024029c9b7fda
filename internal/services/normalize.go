package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*(\r?\n|$)")
	trailingFence = regexp.MustCompile("(^|\r?\n)[ \t]*```$")
)

// Normalize coerces raw model output into target. It trims the text, strips
// a markdown fence wrapping the whole payload, repairs invalid escape
// sequences and then decodes strictly. Any failure wraps ErrNormalization.
func Normalize(raw string, target any) error {
	cleaned := RepairEscapes(StripFences(raw))
	if cleaned == "" {
		return fmt.Errorf("%w: empty output", ErrNormalization)
	}
	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return fmt.Errorf("%w: %v", ErrNormalization, err)
	}
	return nil
}

// StripFences removes a fence line at the very start and a fence line at
// the very end of the trimmed text. Backticks inside a line are left alone.
func StripFences(raw string) string {
	content := strings.TrimSpace(raw)
	content = leadingFence.ReplaceAllString(content, "")
	content = trailingFence.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// RepairEscapes doubles every backslash that does not start a legal JSON
// escape, so LaTeX such as \pi or \cos survives decoding. A legal escape pair
// is copied as a unit and the output is never rescanned.
func RepairEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) && isJSONEscape(s[i+1]) {
			b.WriteByte(c)
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteString(`\\`)
	}
	return b.String()
}

func isJSONEscape(c byte) bool {
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}
