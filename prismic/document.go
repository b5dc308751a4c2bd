package prismic

import (
	"encoding/json"
	"time"
)

// Response is one page of a paginated query result. NextPage is an opaque
// cursor URL, empty on the last page. Results keep the API's ordering and
// must not be re-sorted by callers.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         string     `json:"next_page"`
	PrevPage         string     `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Document is the raw schema of a content document as the API returns it.
// Field decoding is deliberately tolerant: the repository's custom types
// drift, and a missing or oddly shaped field must degrade to a zero value
// rather than fail the page that contains it.
type Document struct {
	ID                   string       `json:"id"`
	UID                  string       `json:"uid"`
	Type                 string       `json:"type"`
	Href                 string       `json:"href"`
	FirstPublicationDate *time.Time   `json:"first_publication_date"`
	LastPublicationDate  *time.Time   `json:"last_publication_date"`
	Data                 DocumentData `json:"data"`
}

// DocumentData maps the recognized post fields to semantic types. Unknown
// fields are ignored by the decoder.
type DocumentData struct {
	Title    Text      `json:"title"`
	Subtitle Text      `json:"subtitle"`
	Author   Text      `json:"author"`
	Banner   Banner    `json:"banner"`
	Content  []Section `json:"content"`
}

// Banner is a linked media field; only the resolved URL is consumed.
type Banner struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Section is one heading + rich-text body unit of a post. Section order in
// the document is significant and preserved as-is.
type Section struct {
	Heading Text     `json:"heading"`
	Body    RichText `json:"body"`
}

// Text is a display string field. The API serves these either as plain JSON
// strings or as rich-text block arrays depending on the custom type version,
// so decoding accepts both and never fails; an unrecognizable shape becomes
// the empty string.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var rt RichText
	if err := json.Unmarshal(b, &rt); err == nil {
		*t = Text(rt.AsText())
		return nil
	}
	*t = ""
	return nil
}

func (t Text) String() string { return string(t) }
