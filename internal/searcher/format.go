package searcher

import (
	"html"
	"strings"
	"unicode"

	"github.com/termdex/termdex/internal/storage"
)

const (
	// DefaultMarkerStart and DefaultMarkerEnd wrap matched spans in rendered
	// output.
	DefaultMarkerStart = "<mark>"
	DefaultMarkerEnd   = "</mark>"
)

// Formatter renders stored text as HTML-safe strings with matched spans
// wrapped in markers. Escaping always happens before a marker goes in, so
// markup stored as glossary content can never reach the output as markup.
type Formatter struct {
	start string
	end   string
}

// NewFormatter builds a Formatter with the given markers, falling back to
// the <mark> defaults when either is empty.
func NewFormatter(start, end string) *Formatter {
	if start == "" {
		start = DefaultMarkerStart
	}
	if end == "" {
		end = DefaultMarkerEnd
	}
	return &Formatter{start: start, end: end}
}

// Escape HTML-escapes plain content.
func (f *Formatter) Escape(s string) string {
	return html.EscapeString(s)
}

// RenderMarked converts sentinel-wrapped text from the indexed search path
// into escaped output with real markers. The sentinels are non-printing
// bytes that survive HTML escaping untouched.
func (f *Formatter) RenderMarked(s string) string {
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, storage.MatchMarkerStart, f.start)
	return strings.ReplaceAll(escaped, storage.MatchMarkerEnd, f.end)
}

// HighlightAll escapes text and wraps every case-insensitive occurrence of
// query in markers. Used by the substring retrieval paths, which have no
// index to mark matches for them. A blank query escapes only.
func (f *Formatter) HighlightAll(text, query string) string {
	q := []rune(query)
	if len(q) == 0 {
		return html.EscapeString(text)
	}
	for i, r := range q {
		q[i] = unicode.ToLower(r)
	}

	runes := []rune(text)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	var sb strings.Builder
	last := 0
	for i := 0; i+len(q) <= len(runes); {
		if !runesEqual(lowered[i:i+len(q)], q) {
			i++
			continue
		}
		sb.WriteString(html.EscapeString(string(runes[last:i])))
		sb.WriteString(f.start)
		sb.WriteString(html.EscapeString(string(runes[i : i+len(q)])))
		sb.WriteString(f.end)
		i += len(q)
		last = i
	}
	sb.WriteString(html.EscapeString(string(runes[last:])))
	return sb.String()
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// containsFold reports whether s contains substr, case-insensitively with
// full Unicode lowering, so Cyrillic content matches Cyrillic queries.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
