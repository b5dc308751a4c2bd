package spacetravel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/eringen/spacetravel/prismic"
)

// pageStatus is the outcome of asking the cache for a route.
type pageStatus int

const (
	pageOK pageStatus = iota
	// pagePending means the route was not known ahead of time and an
	// on-demand generation is running; callers show a loading state.
	pagePending
	// pageNotFound means generation resolved to a missing document.
	pageNotFound
)

const onDemandTimeout = 30 * time.Second

// pageCache enforces the freshness window over generated pages. A route
// inside its window serves its snapshot as-is; outside it the page is
// regenerated, and if regeneration fails the stale snapshot keeps serving.
// Preview requests never go through this cache — drafts are generated per
// request and never stored.
type pageCache struct {
	gen    *Generator
	store  SnapshotStore
	window time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

func newPageCache(gen *Generator, store SnapshotStore, window time.Duration) *pageCache {
	return &pageCache{
		gen:      gen,
		store:    store,
		window:   window,
		inflight: make(map[string]struct{}),
	}
}

const indexRoute = "/"

func postRoute(uid string) string { return "/post/" + uid }

// Home returns the index props, regenerating when the snapshot has left the
// freshness window.
func (c *pageCache) Home(ctx context.Context) (*HomeProps, error) {
	snap, err := c.store.Get(indexRoute)
	haveStale := err == nil && !snap.NotFound
	if haveStale && snap.Fresh(c.window) {
		return decodeProps[HomeProps](snap.Props)
	}

	props, genErr := c.gen.Index(ctx, "")
	if genErr != nil {
		if haveStale {
			log.Printf("spacetravel: index regeneration failed, serving stale: %v", genErr)
			return decodeProps[HomeProps](snap.Props)
		}
		return nil, genErr
	}
	if err := c.put(indexRoute, props, false); err != nil {
		log.Printf("spacetravel: persist index snapshot: %v", err)
	}
	return props, nil
}

// Post returns the detail props for uid. Routes never generated before are
// generated on demand in the background and report pagePending meanwhile.
func (c *pageCache) Post(ctx context.Context, uid string) (*PostProps, pageStatus, error) {
	route := postRoute(uid)
	snap, err := c.store.Get(route)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			return nil, pageOK, err
		}
		c.generateAsync(uid)
		return nil, pagePending, nil
	}

	if snap.Fresh(c.window) {
		if snap.NotFound {
			return nil, pageNotFound, nil
		}
		props, err := decodeProps[PostProps](snap.Props)
		if err != nil {
			return nil, pageOK, err
		}
		return props, pageOK, nil
	}

	props, genErr := c.gen.Detail(ctx, uid, "")
	if genErr != nil {
		if errors.Is(genErr, prismic.ErrNotFound) {
			// The document was deleted since the last generation. Fail this
			// route only; everything else keeps serving.
			_ = c.put(route, struct{}{}, true)
			return nil, pageNotFound, nil
		}
		if !snap.NotFound {
			log.Printf("spacetravel: regeneration of %s failed, serving stale: %v", route, genErr)
			stale, err := decodeProps[PostProps](snap.Props)
			if err != nil {
				return nil, pageOK, err
			}
			return stale, pageOK, nil
		}
		return nil, pageOK, genErr
	}
	if err := c.put(route, props, false); err != nil {
		log.Printf("spacetravel: persist snapshot %s: %v", route, err)
	}
	return props, pageOK, nil
}

// Warm pre-generates the index and every enumerated detail route. Per-route
// failures are reported and do not abort the batch.
func (c *pageCache) Warm(ctx context.Context) error {
	if _, err := c.Home(ctx); err != nil {
		return fmt.Errorf("warm index: %w", err)
	}
	uids, err := c.gen.Paths(ctx)
	if err != nil {
		return err
	}

	// Route generations are independent and stateless; run a small batch
	// of them at a time.
	sem := make(chan struct{}, 4)
	var wg sync.WaitGroup
	for _, uid := range uids {
		if snap, err := c.store.Get(postRoute(uid)); err == nil && snap.Fresh(c.window) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(uid string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.generate(ctx, uid); err != nil {
				log.Printf("spacetravel: warm %s: %v", postRoute(uid), err)
			}
		}(uid)
	}
	wg.Wait()
	return nil
}

// generate runs one detail generation for uid and persists the outcome. A
// missing document is persisted as a not-found snapshot rather than an error.
func (c *pageCache) generate(ctx context.Context, uid string) error {
	props, err := c.gen.Detail(ctx, uid, "")
	if errors.Is(err, prismic.ErrNotFound) {
		return c.put(postRoute(uid), struct{}{}, true)
	}
	if err != nil {
		return err
	}
	return c.put(postRoute(uid), props, false)
}

// generateAsync starts a deduplicated background generation for an
// on-demand uid. The request that triggered it renders a loading state;
// later requests find the snapshot.
func (c *pageCache) generateAsync(uid string) {
	c.mu.Lock()
	if _, running := c.inflight[uid]; running {
		c.mu.Unlock()
		return
	}
	c.inflight[uid] = struct{}{}
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, uid)
			c.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), onDemandTimeout)
		defer cancel()

		// A generation error leaves no snapshot; the next request retries.
		if err := c.generate(ctx, uid); err != nil {
			log.Printf("spacetravel: on-demand generation of %s: %v", postRoute(uid), err)
		}
	}()
}

func (c *pageCache) put(route string, props any, notFound bool) error {
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}
	return c.store.Put(Snapshot{
		Route:       route,
		Props:       data,
		GeneratedAt: time.Now(),
		NotFound:    notFound,
	})
}

func decodeProps[T any](data []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode snapshot props: %w", err)
	}
	return &out, nil
}
