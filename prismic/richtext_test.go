package prismic

import (
	"encoding/json"
	"testing"
)

func TestRichTextAsText(t *testing.T) {
	rt := RichText{
		{Type: "heading2", Text: "First"},
		{Type: "paragraph", Text: "one two three"},
		{Type: "image", URL: "https://example.com/x.png"},
		{Type: "paragraph", Text: "four"},
	}
	got := rt.AsText()
	want := "First\none two three\nfour"
	if got != want {
		t.Errorf("AsText = %q, want %q", got, want)
	}
}

func TestRichTextAsHTML(t *testing.T) {
	tests := []struct {
		name string
		rt   RichText
		want string
	}{
		{
			name: "paragraph with spans",
			rt: RichText{{Type: "paragraph", Text: "go is nice", Spans: []Span{
				{Start: 0, End: 2, Type: "strong"},
				{Start: 6, End: 10, Type: "hyperlink", Data: &SpanData{URL: "https://go.dev"}},
			}}},
			want: `<p><strong>go</strong> is <a href="https://go.dev">nice</a></p>`,
		},
		{
			name: "grouped list items",
			rt: RichText{
				{Type: "list-item", Text: "a"},
				{Type: "list-item", Text: "b"},
				{Type: "paragraph", Text: "tail"},
			},
			want: `<ul><li>a</li><li>b</li></ul><p>tail</p>`,
		},
		{
			name: "escapes text",
			rt:   RichText{{Type: "paragraph", Text: `<script>`}},
			want: `<p>&lt;script&gt;</p>`,
		},
		{
			name: "heading level",
			rt:   RichText{{Type: "heading3", Text: "Deep"}},
			want: `<h3>Deep</h3>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rt.AsHTML(); got != tt.want {
				t.Errorf("AsHTML = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextDecodesBothShapes(t *testing.T) {
	var data DocumentData
	raw := `{
		"title": "Plain title",
		"subtitle": [{"type": "paragraph", "text": "From blocks", "spans": []}],
		"author": 42
	}`
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if data.Title.String() != "Plain title" {
		t.Errorf("Title = %q", data.Title)
	}
	if data.Subtitle.String() != "From blocks" {
		t.Errorf("Subtitle = %q", data.Subtitle)
	}
	if data.Author.String() != "" {
		t.Errorf("Author = %q, want empty for unrecognized shape", data.Author)
	}
}

func TestRichTextToleratesMalformedBody(t *testing.T) {
	var section Section
	raw := `{"heading": "H", "body": {"oops": true}}`
	if err := json.Unmarshal([]byte(raw), &section); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(section.Body) != 0 {
		t.Errorf("Body = %v, want empty", section.Body)
	}
}
