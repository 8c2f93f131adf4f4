package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/termdex/termdex/internal/storage"
)

func TestHighlightAll(t *testing.T) {
	f := NewFormatter("", "")

	tests := []struct {
		name  string
		text  string
		query string
		want  string
	}{
		{
			name:  "basic match",
			text:  "grep searches text",
			query: "grep",
			want:  "<mark>grep</mark> searches text",
		},
		{
			name:  "case insensitive keeps original case",
			text:  "Find walks a tree",
			query: "find",
			want:  "<mark>Find</mark> walks a tree",
		},
		{
			name:  "cyrillic folding",
			text:  "Поиск текста",
			query: "поиск",
			want:  "<mark>Поиск</mark> текста",
		},
		{
			name:  "every occurrence marked",
			text:  "pipe to a pipe",
			query: "pipe",
			want:  "<mark>pipe</mark> to a <mark>pipe</mark>",
		},
		{
			name:  "blank query escapes only",
			text:  "a < b",
			query: "",
			want:  "a &lt; b",
		},
		{
			name:  "no match escapes only",
			text:  "nothing here",
			query: "zzz",
			want:  "nothing here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.HighlightAll(tt.text, tt.query))
		})
	}
}

func TestHighlightAll_EscapesBeforeMarking(t *testing.T) {
	f := NewFormatter("", "")

	// Stored markup must come out escaped while the markers stay live
	got := f.HighlightAll("<script>alert(1)</script>", "scr")
	assert.Equal(t, "&lt;<mark>scr</mark>ipt&gt;alert(1)&lt;/<mark>scr</mark>ipt&gt;", got)
	assert.NotContains(t, got, "<script>")
}

func TestHighlightAll_CustomMarkers(t *testing.T) {
	f := NewFormatter("[", "]")
	assert.Equal(t, "[grep] it", f.HighlightAll("grep it", "grep"))
}

func TestRenderMarked(t *testing.T) {
	f := NewFormatter("", "")

	in := storage.MatchMarkerStart + "join" + storage.MatchMarkerEnd + " <left>"
	assert.Equal(t, "<mark>join</mark> &lt;left&gt;", f.RenderMarked(in))
}

func TestEscape(t *testing.T) {
	f := NewFormatter("", "")
	assert.Equal(t, "&lt;b&gt;&amp;", f.Escape("<b>&"))
}
