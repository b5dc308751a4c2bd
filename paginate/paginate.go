// Package paginate implements the "load more" continuation over an opaque
// next-page cursor. A Continuation owns an append-only result sequence and
// a cursor, and advances one page per trigger. It is the client-side half
// of the listing protocol: the server hands out the first page and a cursor,
// and every later page is fetched by following the cursor exactly as it was
// returned, never by constructing URLs.
package paginate

import (
	"context"
	"sync"

	"github.com/eringen/spacetravel/prismic"
)

// State is the continuation's position in its fetch cycle.
type State int

const (
	// Idle means a cursor is available and a trigger will start a fetch.
	Idle State = iota
	// Fetching means a request is in flight; further triggers are no-ops.
	Fetching
	// Exhausted means the last page carried no cursor; the trigger is
	// permanently disabled.
	Exhausted
)

// FetchFunc follows one cursor URL and returns the page it points at.
// prismic.(*Client).FetchPage satisfies it.
type FetchFunc func(ctx context.Context, cursor string) (*prismic.Response, error)

// Continuation is the load-more state machine. All methods are safe for
// concurrent use; only one fetch is ever in flight.
type Continuation struct {
	mu      sync.Mutex
	fetch   FetchFunc
	results []prismic.Document
	cursor  string
	state   State
	seq     int // bumped by Reset; in-flight responses from an older seq are discarded
}

// New creates a Continuation seeded with the first page's results and its
// next-page cursor. An empty cursor starts Exhausted.
func New(initial []prismic.Document, cursor string, fetch FetchFunc) *Continuation {
	c := &Continuation{fetch: fetch}
	c.Reset(initial, cursor)
	return c
}

// Reset replaces the sequence and cursor, e.g. after the hosting page is
// regenerated. A fetch still in flight for the old sequence is discarded
// when it lands rather than applied.
func (c *Continuation) Reset(initial []prismic.Document, cursor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append([]prismic.Document(nil), initial...)
	c.cursor = cursor
	c.seq++
	if cursor == "" {
		c.state = Exhausted
	} else {
		c.state = Idle
	}
}

// LoadMore follows the current cursor and appends the fetched results to the
// end of the sequence. Triggering while a fetch is in flight, or after the
// sequence is exhausted, is a no-op. On error the cursor is kept and the
// continuation returns to Idle, so the trigger is retryable; nothing retries
// automatically.
func (c *Continuation) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return nil
	}
	c.state = Fetching
	cursor := c.cursor
	seq := c.seq
	c.mu.Unlock()

	resp, err := c.fetch(ctx, cursor)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != seq {
		// A Reset happened while the request was in flight; the response
		// belongs to a sequence that no longer exists.
		return nil
	}
	if err != nil {
		c.state = Idle
		return err
	}
	c.results = append(c.results, resp.Results...)
	c.cursor = resp.NextPage
	if c.cursor == "" {
		c.state = Exhausted
	} else {
		c.state = Idle
	}
	return nil
}

// Results returns the accumulated sequence in fetch order.
func (c *Continuation) Results() []prismic.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]prismic.Document, len(c.results))
	copy(out, c.results)
	return out
}

// State reports the current state.
func (c *Continuation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HasMore reports whether a trigger could still load another page.
func (c *Continuation) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != Exhausted
}
