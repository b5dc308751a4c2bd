package spacetravel

import (
	"context"
	"sync"

	"github.com/eringen/spacetravel/prismic"
)

// resolveNeighbors finds the chronologically previous and next published
// posts around uid. It issues two independent page-size-1 queries anchored
// at the current post — ascending for the next post, descending for the
// previous — concurrently, and joins the results after both complete. A
// query with no results means the post sits at a collection boundary and
// that neighbor is absent. If either query errors the whole step fails.
//
// ref must be the content reference of the surrounding generation pass so
// that draft neighbors are resolved consistently with draft content.
func resolveNeighbors(ctx context.Context, client *prismic.Client, uid, ref string) (prev, next *PostRef, err error) {
	var (
		wg       sync.WaitGroup
		nextErr  error
		prevErr  error
		nextResp *prismic.Response
		prevResp *prismic.Response
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		nextResp, nextErr = client.Query(ctx, prismic.At("document.type", "post"), prismic.QueryOptions{
			Ref:       ref,
			PageSize:  1,
			After:     uid,
			Orderings: prismic.OrderAsc(prismic.FirstPublicationDate),
		})
	}()
	go func() {
		defer wg.Done()
		prevResp, prevErr = client.Query(ctx, prismic.At("document.type", "post"), prismic.QueryOptions{
			Ref:       ref,
			PageSize:  1,
			After:     uid,
			Orderings: prismic.OrderDesc(prismic.FirstPublicationDate),
		})
	}()
	wg.Wait()

	if nextErr != nil {
		return nil, nil, nextErr
	}
	if prevErr != nil {
		return nil, nil, prevErr
	}
	return neighborRef(prevResp, uid), neighborRef(nextResp, uid), nil
}

// neighborRef extracts a neighbor reference from a page-size-1 response.
// Absence is checked before anything is dereferenced, and a candidate equal
// to the post itself is treated as absent.
func neighborRef(resp *prismic.Response, selfUID string) *PostRef {
	if resp == nil || len(resp.Results) == 0 {
		return nil
	}
	doc := resp.Results[0]
	if doc.UID == selfUID {
		return nil
	}
	return &PostRef{UID: doc.UID, Title: doc.Data.Title.String()}
}
