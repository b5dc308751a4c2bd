// Package spacetravel renders a blog whose content lives in an external
// headless content repository. Pages are generated ahead of request time,
// kept fresh on a 30-minute window, and an editor can view unpublished
// drafts through a signed preview session.
package spacetravel

import (
	"strings"
	"time"

	"github.com/eringen/spacetravel/prismic"
)

// Post is the canonical post record the rest of the engine works with.
// It is built once from a raw document and never mutated afterwards; every
// regeneration cycle rebuilds it from the repository.
type Post struct {
	UID                  string            `json:"uid"`
	FirstPublicationDate *time.Time        `json:"first_publication_date"`
	LastPublicationDate  *time.Time        `json:"last_publication_date"`
	Title                string            `json:"title"`
	Subtitle             string            `json:"subtitle,omitempty"`
	Author               string            `json:"author"`
	Banner               string            `json:"banner,omitempty"`
	Content              []prismic.Section `json:"content,omitempty"`
	ReadingTime          int               `json:"reading_time,omitempty"`
}

// PostRef is a minimal reference to a neighboring post.
type PostRef struct {
	UID   string `json:"uid"`
	Title string `json:"title"`
}

// PostPagination is the index listing: one page of summary posts plus the
// opaque cursor of the next page. Results keep the repository's recency
// ordering and are never re-sorted.
type PostPagination struct {
	Results  []Post `json:"results"`
	NextPage string `json:"next_page,omitempty"`
}

// HomeProps is everything the index route needs to render.
type HomeProps struct {
	PostsPagination PostPagination `json:"postsPagination"`
}

// PostProps is everything a detail route needs to render. PreviousPost and
// NextPost are nil at the collection boundaries.
type PostProps struct {
	Post         Post     `json:"post"`
	PreviousPost *PostRef `json:"previousPost,omitempty"`
	NextPost     *PostRef `json:"nextPost,omitempty"`
}

// ProjectSummary maps a raw document to the summary form used on the index.
// Missing source fields become zero values; projection never fails.
func ProjectSummary(doc prismic.Document) Post {
	return Post{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		LastPublicationDate:  doc.LastPublicationDate,
		Title:                doc.Data.Title.String(),
		Subtitle:             doc.Data.Subtitle.String(),
		Author:               doc.Data.Author.String(),
	}
}

// ProjectSummaries maps one result page to summary posts, preserving order.
func ProjectSummaries(docs []prismic.Document) []Post {
	posts := make([]Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, ProjectSummary(doc))
	}
	return posts
}

// ProjectPost maps a raw document to the full detail form, including the
// banner and the ordered content sections with the computed reading time.
func ProjectPost(doc prismic.Document) Post {
	p := ProjectSummary(doc)
	p.Banner = doc.Data.Banner.URL
	p.Content = doc.Data.Content
	p.ReadingTime = ReadingTime(doc.Data.Content)
	return p
}

// wordsPerMinute is the assumed reading speed. The resulting minute count is
// shown next to each post, so the formula is part of the page's contract.
const wordsPerMinute = 200

// ReadingTime estimates reading minutes for the given content sections:
// ceil(total whitespace-delimited tokens of headings and flattened bodies /
// 200). Empty content yields 0.
func ReadingTime(content []prismic.Section) int {
	total := 0
	for _, section := range content {
		total += len(strings.Fields(section.Heading.String()))
		total += len(strings.Fields(section.Body.AsText()))
	}
	return (total + wordsPerMinute - 1) / wordsPerMinute
}
