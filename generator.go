package spacetravel

import (
	"context"
	"fmt"
	"time"

	"github.com/eringen/spacetravel/paginate"
	"github.com/eringen/spacetravel/prismic"
)

// Revalidate is the freshness window of every generated route: a page is
// regenerated from the repository at most once per window, and previously
// generated output is served as-is in between.
const Revalidate = 30 * time.Minute

const postType = "post"

// Generator turns repository documents into renderable page props. It holds
// no mutable state; every call owns its client requests and builds its own
// output, so routes may generate concurrently without locking.
type Generator struct {
	client   *prismic.Client
	pageSize int
}

// NewGenerator creates a Generator over the given content client.
// pageSize bounds the index listing page; zero uses the API default.
func NewGenerator(client *prismic.Client, pageSize int) *Generator {
	return &Generator{client: client, pageSize: pageSize}
}

// Index generates the index route props: one page of summary posts ordered
// by recency plus the opaque cursor for the rest, queried at ref (empty for
// the published version).
func (g *Generator) Index(ctx context.Context, ref string) (*HomeProps, error) {
	resp, err := g.client.Query(ctx, prismic.At("document.type", postType), prismic.QueryOptions{
		Ref:       ref,
		PageSize:  g.pageSize,
		Orderings: prismic.OrderDesc(prismic.FirstPublicationDate),
	})
	if err != nil {
		return nil, fmt.Errorf("generate index: %w", err)
	}
	return &HomeProps{
		PostsPagination: PostPagination{
			Results:  ProjectSummaries(resp.Results),
			NextPage: resp.NextPage,
		},
	}, nil
}

// Detail generates a detail route's props for uid at ref: the projected
// document plus its chronological neighbors, all queried at the same ref.
// A missing document fails with prismic.ErrNotFound; the failure is scoped
// to this one route.
func (g *Generator) Detail(ctx context.Context, uid, ref string) (*PostProps, error) {
	doc, err := g.client.GetByUID(ctx, postType, uid, prismic.QueryOptions{Ref: ref})
	if err != nil {
		return nil, err
	}
	prev, next, err := resolveNeighbors(ctx, g.client, uid, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve neighbors for %q: %w", uid, err)
	}
	return &PostProps{
		Post:         ProjectPost(*doc),
		PreviousPost: prev,
		NextPost:     next,
	}, nil
}

// Paths enumerates the uids of all published posts, following next-page
// cursors until the listing is exhausted. It is used to pre-generate known
// detail routes; uids that appear later are generated on demand instead.
func (g *Generator) Paths(ctx context.Context) ([]string, error) {
	resp, err := g.client.Query(ctx, prismic.At("document.type", postType), prismic.QueryOptions{
		PageSize: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate paths: %w", err)
	}

	cont := paginate.New(resp.Results, resp.NextPage, g.client.FetchPage)
	for cont.HasMore() {
		if err := cont.LoadMore(ctx); err != nil {
			return nil, fmt.Errorf("enumerate paths: %w", err)
		}
	}

	docs := cont.Results()
	uids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.UID == "" {
			continue
		}
		uids = append(uids, doc.UID)
	}
	return uids, nil
}
