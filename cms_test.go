package spacetravel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/eringen/spacetravel/prismic"
)

// cmsDoc is a fixture document served by the fake content API.
type cmsDoc struct {
	uid      string
	title    string
	subtitle string
	author   string
	date     string // RFC3339, ascending across the fixture slice
	banner   string
	sections []map[string]any
}

func (d cmsDoc) toJSON() map[string]any {
	data := map[string]any{
		"title":    d.title,
		"subtitle": d.subtitle,
		"author":   d.author,
	}
	if d.banner != "" {
		data["banner"] = map[string]any{"url": d.banner}
	}
	if d.sections != nil {
		data["content"] = d.sections
	}
	return map[string]any{
		"id":                     "id-" + d.uid,
		"uid":                    d.uid,
		"type":                   "post",
		"first_publication_date": d.date,
		"last_publication_date":  d.date,
		"data":                   data,
	}
}

// fakeCMS is an httptest-backed content API serving a fixed post fixture.
// It records every ref it is queried with and counts search requests, so
// tests can assert freshness and preview-consistency properties.
type fakeCMS struct {
	t   *testing.T
	srv *httptest.Server

	mu         sync.Mutex
	docs       []cmsDoc // ascending by date
	refsSeen   []string
	searchHits int
	failSearch bool
}

func newFakeCMS(t *testing.T, docs []cmsDoc) *fakeCMS {
	t.Helper()
	f := &fakeCMS{t: t, docs: docs}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"refs": []map[string]any{{"id": "master", "ref": "master-ref", "isMasterRef": true}},
		})
	})
	mux.HandleFunc("/api/v2/documents/search", f.handleSearch)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeCMS) endpoint() string { return f.srv.URL + "/api/v2" }

func (f *fakeCMS) client() *prismic.Client { return prismic.New(f.endpoint()) }

func (f *fakeCMS) setFailSearch(fail bool) {
	f.mu.Lock()
	f.failSearch = fail
	f.mu.Unlock()
}

func (f *fakeCMS) hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchHits
}

func (f *fakeCMS) refs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refsSeen...)
}

func (f *fakeCMS) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f.mu.Lock()
	f.searchHits++
	f.refsSeen = append(f.refsSeen, q.Get("ref"))
	fail := f.failSearch
	docs := append([]cmsDoc(nil), f.docs...)
	f.mu.Unlock()

	if fail {
		http.Error(w, "cms down", http.StatusInternalServerError)
		return
	}

	pred := q.Get("q")
	if strings.Contains(pred, "my.post.uid") {
		uid := quotedValue(pred)
		for _, d := range docs {
			if d.uid == uid {
				writePage(w, []cmsDoc{d}, "")
				return
			}
		}
		writePage(w, nil, "")
		return
	}

	// Listing query: order, anchor, paginate.
	if strings.Contains(q.Get("orderings"), " desc") {
		reversed := make([]cmsDoc, 0, len(docs))
		for i := len(docs) - 1; i >= 0; i-- {
			reversed = append(reversed, docs[i])
		}
		docs = reversed
	}
	if after := q.Get("after"); after != "" {
		for i, d := range docs {
			if d.uid == after {
				docs = docs[i+1:]
				break
			}
		}
	}

	pageSize := 20
	if v := q.Get("pageSize"); v != "" {
		pageSize, _ = strconv.Atoi(v)
	}
	page := 1
	if v := q.Get("page"); v != "" {
		page, _ = strconv.Atoi(v)
	}
	offset := (page - 1) * pageSize
	if offset > len(docs) {
		offset = len(docs)
	}
	end := offset + pageSize
	if end > len(docs) {
		end = len(docs)
	}

	next := ""
	if end < len(docs) {
		nq := r.URL.Query()
		nq.Set("page", strconv.Itoa(page+1))
		next = f.srv.URL + r.URL.Path + "?" + nq.Encode()
	}
	writePage(w, docs[offset:end], next)
}

func quotedValue(pred string) string {
	parts := strings.Split(pred, `"`)
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

func writePage(w http.ResponseWriter, docs []cmsDoc, next string) {
	results := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		results = append(results, d.toJSON())
	}
	var nextPage any
	if next != "" {
		nextPage = next
	}
	json.NewEncoder(w).Encode(map[string]any{
		"results":   results,
		"next_page": nextPage,
	})
}

// threePosts is the standard fixture: intro (oldest) → middle → latest.
func threePosts() []cmsDoc {
	body := []map[string]any{{
		"heading": "Section",
		"body":    []map[string]any{{"type": "paragraph", "text": "some body text here", "spans": []any{}}},
	}}
	return []cmsDoc{
		{uid: "intro", title: "Intro", subtitle: "First steps", author: "Ada", date: "2021-03-15T19:25:28Z", banner: "https://images.example.com/intro.png", sections: body},
		{uid: "middle", title: "Middle", subtitle: "Keep going", author: "Ada", date: "2021-04-01T10:00:00Z", banner: "https://images.example.com/middle.png", sections: body},
		{uid: "latest", title: "Latest", subtitle: "Almost there", author: "Grace", date: "2021-05-20T08:30:00Z", banner: "https://images.example.com/latest.png", sections: body},
	}
}
