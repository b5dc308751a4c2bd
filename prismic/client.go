// Package prismic is a thin typed client for the headless content API that
// owns all blog content. It covers the two operations the engine needs —
// predicate queries and get-by-uid — plus opaque cursor pagination. Retry
// policy, if any, belongs to the caller's http.Client; this package performs
// none.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("prismic: document not found")

const masterRefTTL = 5 * time.Minute

// Client queries a Prismic-style content repository over HTTP.
type Client struct {
	endpoint    string
	accessToken string
	http        *http.Client

	mu         sync.RWMutex
	masterRef  string
	refFetched time.Time
}

// Option configures additional Client behavior.
type Option func(*Client)

// WithHTTPClient sets the transport used for all requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithAccessToken sets the repository access token sent with every request.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// New creates a Client for the given API endpoint, e.g.
// "https://myrepo.cdn.prismic.io/api/v2".
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predicate is a single query constraint.
type Predicate struct {
	fragment string
	value    string
}

// At constrains fragment to exactly value, e.g. At("document.type", "post").
func At(fragment, value string) Predicate {
	return Predicate{fragment: fragment, value: value}
}

func (p Predicate) String() string {
	return fmt.Sprintf("[[at(%s,%q)]]", p.fragment, p.value)
}

// FirstPublicationDate is the ordering field for publication recency.
const FirstPublicationDate = "document.first_publication_date"

// OrderAsc returns an ascending orderings expression for field.
func OrderAsc(field string) string { return "[" + field + "]" }

// OrderDesc returns a descending orderings expression for field.
func OrderDesc(field string) string { return "[" + field + " desc]" }

// QueryOptions carry the optional parameters of a query. A zero Ref selects
// the published content version; a non-zero Ref selects a specific draft
// revision and must be applied to every query of a generation pass.
type QueryOptions struct {
	Ref       string
	PageSize  int
	After     string // anchor uid for neighbor lookups
	Orderings string
}

// Query runs a predicate query and returns one page of results together with
// the opaque cursor of the next page, if any.
func (c *Client) Query(ctx context.Context, p Predicate, opts QueryOptions) (*Response, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = c.MasterRef(ctx)
		if err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("q", p.String())
	q.Set("ref", ref)
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.After != "" {
		q.Set("after", opts.After)
	}
	if opts.Orderings != "" {
		q.Set("orderings", opts.Orderings)
	}
	return c.fetch(ctx, c.endpoint+"/documents/search?"+q.Encode())
}

// GetByUID fetches a single document of the given type by uid. It fails with
// ErrNotFound when no document matches.
func (c *Client) GetByUID(ctx context.Context, typ, uid string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	opts.After = ""
	opts.Orderings = ""
	resp, err := c.Query(ctx, At(fmt.Sprintf("my.%s.uid", typ), uid), opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// FetchPage follows an opaque next-page cursor URL returned by a previous
// query. The cursor is server-supplied and is never constructed here.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Response, error) {
	if cursor == "" {
		return nil, errors.New("prismic: empty page cursor")
	}
	return c.fetch(ctx, cursor)
}

// Endpoint returns the configured API endpoint.
func (c *Client) Endpoint() string { return c.endpoint }

// MasterRef resolves the ref of the currently published content version.
// The value is cached briefly so repeated generations do not re-resolve it.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.masterRef != "" && time.Since(c.refFetched) < masterRefTTL {
		ref := c.masterRef
		c.mu.RUnlock()
		return ref, nil
	}
	c.mu.RUnlock()

	u := c.endpoint
	if c.accessToken != "" {
		u += "?access_token=" + url.QueryEscape(c.accessToken)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("prismic: resolve ref: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("prismic: resolve ref: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prismic: resolve ref: unexpected status %d", resp.StatusCode)
	}

	var api struct {
		Refs []struct {
			Ref         string `json:"ref"`
			IsMasterRef bool   `json:"isMasterRef"`
		} `json:"refs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return "", fmt.Errorf("prismic: resolve ref: %w", err)
	}
	for _, r := range api.Refs {
		if r.IsMasterRef {
			c.mu.Lock()
			c.masterRef = r.Ref
			c.refFetched = time.Now()
			c.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", errors.New("prismic: api carries no master ref")
}

func (c *Client) fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("prismic: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prismic: query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prismic: query: unexpected status %d", resp.StatusCode)
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("prismic: decode response: %w", err)
	}
	return &out, nil
}
