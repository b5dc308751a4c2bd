package prismic

import (
	"encoding/json"
	"html"
	"sort"
	"strings"
)

// RichText is an ordered sequence of structured text blocks. Decoding is
// tolerant: a body that is not a block array becomes empty rather than
// failing the document.
type RichText []Block

// Block is one block-level element of a rich-text field.
type Block struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Spans []Span `json:"spans,omitempty"`
	URL   string `json:"url,omitempty"` // image blocks
	Alt   string `json:"alt,omitempty"`
}

// Span is an inline formatting range over a block's text, in rune offsets.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries hyperlink targets.
type SpanData struct {
	URL string `json:"url"`
}

func (r *RichText) UnmarshalJSON(b []byte) error {
	var bs []Block
	if err := json.Unmarshal(b, &bs); err != nil {
		*r = nil
		return nil
	}
	*r = RichText(bs)
	return nil
}

// AsText flattens the rich text into plain text, one line per text block.
// Image blocks contribute nothing.
func (r RichText) AsText() string {
	var parts []string
	for _, b := range r {
		if b.Type == "image" {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}

// AsHTML renders the rich text as HTML. Consecutive list items are grouped
// into a single list element.
func (r RichText) AsHTML() string {
	var sb strings.Builder
	var listTag string

	closeList := func() {
		if listTag != "" {
			sb.WriteString("</" + listTag + ">")
			listTag = ""
		}
	}
	openList := func(tag string) {
		if listTag != tag {
			closeList()
			sb.WriteString("<" + tag + ">")
			listTag = tag
		}
	}

	for _, b := range r {
		switch b.Type {
		case "list-item":
			openList("ul")
			sb.WriteString("<li>" + renderSpans(b.Text, b.Spans) + "</li>")
		case "o-list-item":
			openList("ol")
			sb.WriteString("<li>" + renderSpans(b.Text, b.Spans) + "</li>")
		case "image":
			closeList()
			sb.WriteString(`<img src="` + html.EscapeString(b.URL) + `" alt="` + html.EscapeString(b.Alt) + `"/>`)
		case "preformatted":
			closeList()
			sb.WriteString("<pre>" + html.EscapeString(b.Text) + "</pre>")
		case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
			closeList()
			tag := "h" + b.Type[len("heading"):]
			sb.WriteString("<" + tag + ">" + renderSpans(b.Text, b.Spans) + "</" + tag + ">")
		default: // paragraph and anything unrecognized
			closeList()
			sb.WriteString("<p>" + renderSpans(b.Text, b.Spans) + "</p>")
		}
	}
	closeList()
	return sb.String()
}

// renderSpans escapes text and wraps inline span ranges in their tags.
// Spans are applied left to right; a span overlapping an earlier one is
// dropped, which matches how the editor serializes formatting in practice.
func renderSpans(text string, spans []Span) string {
	if len(spans) == 0 {
		return html.EscapeString(text)
	}
	runes := []rune(text)
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var sb strings.Builder
	pos := 0
	for _, s := range sorted {
		if s.Start < pos || s.End > len(runes) || s.Start >= s.End {
			continue
		}
		sb.WriteString(html.EscapeString(string(runes[pos:s.Start])))
		inner := html.EscapeString(string(runes[s.Start:s.End]))
		switch s.Type {
		case "strong":
			sb.WriteString("<strong>" + inner + "</strong>")
		case "em":
			sb.WriteString("<em>" + inner + "</em>")
		case "hyperlink":
			href := ""
			if s.Data != nil {
				href = s.Data.URL
			}
			sb.WriteString(`<a href="` + html.EscapeString(href) + `">` + inner + "</a>")
		default:
			sb.WriteString(inner)
		}
		pos = s.End
	}
	sb.WriteString(html.EscapeString(string(runes[pos:])))
	return sb.String()
}
