package search

import (
	"context"
	"fmt"

	"github.com/grafeasgroup/buttercup/blossom"
)

// Page sizes. A Blossom fetch covers several consecutive Discord pages, so
// stepping through results usually reuses the cached response instead of
// hitting the API again. FetchPageSize must be an integer multiple of
// DisplayPageSize.
const (
	// DisplayPageSize is the number of results shown per Discord page.
	DisplayPageSize = 5
	// FetchPageSize is the number of results fetched per Blossom request.
	FetchPageSize = DisplayPageSize * 5
)

// Fetcher is the part of the Blossom client the paginator needs.
type Fetcher interface {
	SearchTranscriptions(ctx context.Context, query string, pageSize, page int) (*blossom.SearchResponse, error)
}

// ConsistencyError reports display slice indices that fall outside the
// fetched result window. It indicates a page-size-ratio or arithmetic bug,
// fatal to the single pagination step but not the process.
type ConsistencyError struct {
	Start, End, Window int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("search: display slice [%d:%d] outside fetched window of %d results", e.Start, e.End, e.Window)
}

// Item is one rendered search result with its 1-based running index across
// all pages.
type Item struct {
	Num    int
	Result blossom.Transcription
}

// Page is the outcome of a pagination step. When NoResults is set the other
// fields except TotalCount are zero and the cache entry must not be updated.
type Page struct {
	// Entry is the updated cache entry the caller writes back.
	Entry Entry
	// Items is the display slice for the target page.
	Items []Item
	// TotalCount is the total number of matching transcriptions.
	TotalCount int
	// TotalPages is the number of Discord display pages.
	TotalPages int
	// NoResults marks a query with zero matches.
	NoResults bool
	// Fetched reports whether this step issued a Blossom request.
	Fetched bool
}

// Paginator turns page deltas into display pages, fetching from Blossom only
// when the target page falls outside the cached fetch window.
type Paginator struct {
	Fetcher Fetcher
}

// Advance moves the given entry by delta display pages and produces the new
// page. The caller guarantees the target page is non-negative; the upper
// bound is enforced by only offering forward controls on non-final pages.
// On a fetch error the passed entry is still valid and unchanged in the
// cache, so the user can simply retry the control.
func (p *Paginator) Advance(ctx context.Context, entry Entry, delta int) (*Page, error) {
	targetPage := entry.CurrentPage + delta
	targetRequestPage := targetPage * DisplayPageSize / FetchPageSize

	response := entry.Response
	fetched := false
	if response == nil || targetRequestPage != entry.RequestPage {
		// The target page lies outside the cached window.
		fresh, err := p.Fetcher.SearchTranscriptions(ctx, entry.Query, FetchPageSize, targetRequestPage+1)
		if err != nil {
			return nil, err
		}
		response = fresh
		fetched = true
	}

	if response.Count == 0 {
		return &Page{NoResults: true, Fetched: fetched}, nil
	}

	requestOffset := targetRequestPage * FetchPageSize
	displayOffset := targetPage * DisplayPageSize
	start := displayOffset - requestOffset
	end := start + DisplayPageSize
	if start < 0 || start >= FetchPageSize || start > len(response.Results) {
		return nil, &ConsistencyError{Start: start, End: end, Window: len(response.Results)}
	}
	if end > len(response.Results) {
		// The final fetch window is allowed to be short.
		end = len(response.Results)
	}

	items := make([]Item, 0, end-start)
	for i, res := range response.Results[start:end] {
		items = append(items, Item{Num: displayOffset + i + 1, Result: res})
	}

	return &Page{
		Entry: Entry{
			Query:       entry.Query,
			CurrentPage: targetPage,
			RequesterID: entry.RequesterID,
			Response:    response,
			RequestPage: targetRequestPage,
		},
		Items:      items,
		TotalCount: response.Count,
		TotalPages: (response.Count + DisplayPageSize - 1) / DisplayPageSize,
		Fetched:    fetched,
	}, nil
}
