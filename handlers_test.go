package spacetravel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

func textComponent(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func testViews() ViewFuncs {
	return ViewFuncs{
		Home: func(props HomeProps, preview bool) templ.Component {
			return textComponent(fmt.Sprintf("home:%d:preview=%v", len(props.PostsPagination.Results), preview))
		},
		Post: func(props PostProps, preview bool) templ.Component {
			prev, next := "-", "-"
			if props.PreviousPost != nil {
				prev = props.PreviousPost.UID
			}
			if props.NextPost != nil {
				next = props.NextPost.UID
			}
			return textComponent(fmt.Sprintf("post:%s:prev=%s:next=%s:preview=%v", props.Post.UID, prev, next, preview))
		},
		Loading:     func() templ.Component { return textComponent("loading") },
		NotFound:    func() templ.Component { return textComponent("notfound") },
		ServerError: func() templ.Component { return textComponent("servererror") },
	}
}

func newTestApp(t *testing.T, cms *fakeCMS, pageSize int) *App {
	t.Helper()
	cfg := SiteConfig{
		APIEndpoint:   cms.endpoint(),
		SessionSecret: "test-secret",
		PageSize:      pageSize,
	}
	cfg.setDefaults()

	store, err := NewStore(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	a := &App{
		Config:     cfg,
		Echo:       echo.New(),
		Views:      testViews(),
		httpClient: http.DefaultClient,
		staticDir:  t.TempDir(),
	}
	a.Client = cms.client()
	a.Generator = NewGenerator(a.Client, cfg.PageSize)
	a.Store = store
	a.cache = newPageCache(a.Generator, store, cfg.FreshnessWindow)
	a.previewLimiter = newTokenLimiter(5, time.Minute)
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// get performs a request against the app, carrying any cookies.
func get(t *testing.T, a *App, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHomeRoute(t *testing.T) {
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 20)

	rec := get(t, a, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "home:3:preview=false") {
		t.Errorf("body = %q", rec.Body.String())
	}
	cc := rec.Header().Get("Cache-Control")
	if !strings.Contains(cc, "s-maxage=1800") {
		t.Errorf("Cache-Control = %q, want the 1800s freshness declaration", cc)
	}
}

func TestLoadMoreScenario(t *testing.T) {
	// First page carries 2 posts and a cursor; following it yields the
	// third post and no further cursor.
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 2)

	props, err := a.Generator.Index(context.Background(), "")
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if len(props.PostsPagination.Results) != 2 {
		t.Fatalf("first page = %d posts, want 2", len(props.PostsPagination.Results))
	}
	cursor := props.PostsPagination.NextPage
	if cursor == "" {
		t.Fatal("expected a next-page cursor")
	}

	rec := get(t, a, "/api/load-more?cursor="+url.QueryEscape(cursor), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var page PostPagination
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].UID != "intro" {
		t.Errorf("second page = %+v, want the remaining post", page.Results)
	}
	if page.NextPage != "" {
		t.Errorf("NextPage = %q, want empty once exhausted", page.NextPage)
	}
}

func TestLoadMoreRejectsForeignCursor(t *testing.T) {
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 20)

	rec := get(t, a, "/api/load-more?cursor=https://evil.example.com/steal", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a cursor outside the content api", rec.Code)
	}
}

func TestPostDetailRoute(t *testing.T) {
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 20)
	if err := a.cache.Warm(context.Background()); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}

	rec := get(t, a, "/post/middle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "post:middle:prev=intro:next=latest") {
		t.Errorf("body = %q", rec.Body.String())
	}

	// Boundary post renders only the next link.
	rec = get(t, a, "/post/intro", nil)
	if !strings.Contains(rec.Body.String(), "post:intro:prev=-:next=middle") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestPostOnDemandShowsLoadingThenPage(t *testing.T) {
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 20)

	rec := get(t, a, "/post/latest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for the loading state", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "loading") {
		t.Errorf("body = %q, want the loading state", rec.Body.String())
	}

	waitFor(t, func() bool {
		_, err := a.cache.store.Get(postRoute("latest"))
		return err == nil
	})

	rec = get(t, a, "/post/latest", nil)
	if !strings.Contains(rec.Body.String(), "post:latest") {
		t.Errorf("body = %q, want the generated page", rec.Body.String())
	}
}

func TestPostGhostEventuallyNotFound(t *testing.T) {
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 20)

	rec := get(t, a, "/post/ghost", nil)
	if !strings.Contains(rec.Body.String(), "loading") {
		t.Fatalf("body = %q, want loading while generation runs", rec.Body.String())
	}

	waitFor(t, func() bool {
		snap, err := a.cache.store.Get(postRoute("ghost"))
		return err == nil && snap.NotFound
	})

	rec = get(t, a, "/post/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	// Sibling routes keep serving.
	if rec := get(t, a, "/", nil); rec.Code != http.StatusOK {
		t.Errorf("index affected by a sibling's not-found: %d", rec.Code)
	}
}

func TestExitPreviewIdempotent(t *testing.T) {
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 20)

	for i := 0; i < 2; i++ {
		rec := get(t, a, "/api/exit-preview", nil)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("call %d: status = %d, want 307", i+1, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/" {
			t.Fatalf("call %d: Location = %q, want /", i+1, loc)
		}
	}
}

func TestPreviewSessionUsesDraftRefEverywhere(t *testing.T) {
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 20)

	rec := get(t, a, "/api/preview?token=draft-ref", nil)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a preview session cookie")
	}

	before := len(cms.refs())
	rec = get(t, a, "/post/middle", cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "preview=true") {
		t.Errorf("body = %q, want a preview render", rec.Body.String())
	}

	refs := cms.refs()[before:]
	if len(refs) == 0 {
		t.Fatal("preview generation issued no queries")
	}
	for _, ref := range refs {
		// Document fetch and both neighbor queries observe the draft ref.
		if ref != "draft-ref" {
			t.Errorf("query used ref %q, want draft-ref", ref)
		}
	}

	// Preview responses must not be shared-cached.
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	// Exiting restores the published view.
	rec = get(t, a, "/api/exit-preview", cookies)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	cleared := rec.Result().Cookies()
	rec = get(t, a, "/", cleared)
	if !strings.Contains(rec.Body.String(), "preview=false") {
		t.Errorf("body = %q, want published render after exit", rec.Body.String())
	}
}

func TestEnterPreviewRejectsWhenRepositoryRefuses(t *testing.T) {
	cms := newFakeCMS(t, threePosts())
	a := newTestApp(t, cms, 20)
	cms.setFailSearch(true)

	rec := get(t, a, "/api/preview?token=bogus", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
