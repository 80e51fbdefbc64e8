package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/grafeasgroup/buttercup/blossom"
)

// fakeFetcher serves search pages from a fixed result set and counts the
// requests it receives.
type fakeFetcher struct {
	results []blossom.Transcription
	calls   int
	// lastPageSize and lastPage record the most recent request.
	lastPageSize int
	lastPage     int
	err          error
}

func (f *fakeFetcher) SearchTranscriptions(ctx context.Context, query string, pageSize, page int) (*blossom.SearchResponse, error) {
	f.calls++
	f.lastPageSize = pageSize
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(f.results) {
		start = len(f.results)
	}
	if end > len(f.results) {
		end = len(f.results)
	}
	return &blossom.SearchResponse{Count: len(f.results), Results: f.results[start:end]}, nil
}

func makeResults(n int) []blossom.Transcription {
	results := make([]blossom.Transcription, n)
	for i := range results {
		results[i] = blossom.Transcription{
			ID:   int64(i + 1),
			Text: fmt.Sprintf("transcription %d", i+1),
			URL:  fmt.Sprintf("https://reddit.com/r/sub/comments/%d/", i+1),
		}
	}
	return results
}

func TestAdvanceInitialFetch(t *testing.T) {
	fetcher := &fakeFetcher{results: makeResults(60)}
	p := &Paginator{Fetcher: fetcher}

	page, err := p.Advance(context.Background(), Entry{Query: "hello", RequesterID: "u1"}, 0)
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if !page.Fetched {
		t.Error("expected initial step to fetch")
	}
	if fetcher.calls != 1 || fetcher.lastPageSize != FetchPageSize || fetcher.lastPage != 1 {
		t.Errorf("fetch calls=%d pageSize=%d page=%d, want 1/%d/1", fetcher.calls, fetcher.lastPageSize, fetcher.lastPage, FetchPageSize)
	}
	if len(page.Items) != DisplayPageSize {
		t.Fatalf("len(Items) = %d, want %d", len(page.Items), DisplayPageSize)
	}
	if page.Items[0].Num != 1 || page.Items[4].Num != 5 {
		t.Errorf("item numbering = %d..%d, want 1..5", page.Items[0].Num, page.Items[4].Num)
	}
	if page.TotalCount != 60 || page.TotalPages != 12 {
		t.Errorf("TotalCount=%d TotalPages=%d, want 60/12", page.TotalCount, page.TotalPages)
	}
	if page.Entry.CurrentPage != 0 || page.Entry.RequestPage != 0 || page.Entry.Response == nil {
		t.Errorf("updated entry %+v not pointing at fetched window", page.Entry)
	}
	if page.Entry.RequesterID != "u1" || page.Entry.Query != "hello" {
		t.Errorf("entry identity fields changed: %+v", page.Entry)
	}
}

func TestAdvanceReusesFetchWindow(t *testing.T) {
	fetcher := &fakeFetcher{results: makeResults(60)}
	p := &Paginator{Fetcher: fetcher}

	entry := Entry{Query: "hello", RequesterID: "u1"}

	// Pages 0-4 all live in the first fetch window of 25 results; stepping
	// through them costs exactly one request.
	for step := 0; step < 5; step++ {
		delta := 1
		if step == 0 {
			delta = 0
		}
		page, err := p.Advance(context.Background(), entry, delta)
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		entry = page.Entry
		if entry.CurrentPage != step {
			t.Fatalf("step %d: CurrentPage = %d", step, entry.CurrentPage)
		}
		wantFirst := step*DisplayPageSize + 1
		if page.Items[0].Num != wantFirst {
			t.Errorf("step %d: first item num = %d, want %d", step, page.Items[0].Num, wantFirst)
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 for pages 0-4", fetcher.calls)
	}

	// Page 5 needs the second window.
	page, err := p.Advance(context.Background(), entry, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !page.Fetched || fetcher.calls != 2 {
		t.Errorf("page 5: Fetched=%v calls=%d, want fetch and 2 calls", page.Fetched, fetcher.calls)
	}
	if fetcher.lastPage != 2 {
		t.Errorf("page 5 fetched Blossom page %d, want 2", fetcher.lastPage)
	}
	if page.Items[0].Num != 26 {
		t.Errorf("page 5 first item num = %d, want 26", page.Items[0].Num)
	}
}

func TestAdvanceBackwardWithinWindow(t *testing.T) {
	fetcher := &fakeFetcher{results: makeResults(60)}
	p := &Paginator{Fetcher: fetcher}

	page, err := p.Advance(context.Background(), Entry{Query: "q"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Forward to page 3, then back to page 2: still window 0, one fetch total.
	page, err = p.Advance(context.Background(), page.Entry, 3)
	if err != nil {
		t.Fatal(err)
	}
	page, err = p.Advance(context.Background(), page.Entry, -1)
	if err != nil {
		t.Fatal(err)
	}
	if page.Entry.CurrentPage != 2 {
		t.Errorf("CurrentPage = %d, want 2", page.Entry.CurrentPage)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
}

func TestAdvanceJumpToLastPage(t *testing.T) {
	fetcher := &fakeFetcher{results: makeResults(23)}
	p := &Paginator{Fetcher: fetcher}

	page, err := p.Advance(context.Background(), Entry{Query: "q"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalPages != 5 {
		t.Fatalf("TotalPages = %d, want 5", page.TotalPages)
	}

	// Jump to the last (short) page.
	page, err = p.Advance(context.Background(), page.Entry, page.TotalPages-1)
	if err != nil {
		t.Fatal(err)
	}
	if page.Entry.CurrentPage != 4 {
		t.Errorf("CurrentPage = %d, want 4", page.Entry.CurrentPage)
	}
	if len(page.Items) != 3 {
		t.Errorf("last page has %d items, want 3", len(page.Items))
	}
	if page.Items[0].Num != 21 || page.Items[2].Num != 23 {
		t.Errorf("last page numbering %d..%d, want 21..23", page.Items[0].Num, page.Items[len(page.Items)-1].Num)
	}
	// 23 results fit in one fetch window.
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
}

func TestAdvanceNoResults(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := &Paginator{Fetcher: fetcher}

	page, err := p.Advance(context.Background(), Entry{Query: "nothing"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !page.NoResults {
		t.Error("expected NoResults for empty result set")
	}
	if !page.Fetched {
		t.Error("expected the empty search to have fetched")
	}
	if len(page.Items) != 0 {
		t.Errorf("Items = %v, want none", page.Items)
	}
}

func TestAdvanceFetchErrorLeavesEntryUsable(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("boom")}
	p := &Paginator{Fetcher: fetcher}

	entry := Entry{Query: "q", CurrentPage: 0}
	if _, err := p.Advance(context.Background(), entry, 0); err == nil {
		t.Fatal("expected fetch error to propagate")
	}

	// The same entry retried against a healthy fetcher works.
	fetcher.err = nil
	fetcher.results = makeResults(5)
	page, err := p.Advance(context.Background(), entry, 0)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(page.Items) != 5 {
		t.Errorf("retry produced %d items, want 5", len(page.Items))
	}
}

func TestAdvanceConsistencyError(t *testing.T) {
	// A response claiming matches but carrying no rows for the requested
	// window triggers the consistency check.
	fetcher := &shortWindowFetcher{}
	p := &Paginator{Fetcher: fetcher}

	entry := Entry{Query: "q", CurrentPage: 0}
	_, err := p.Advance(context.Background(), entry, 3)
	var cerr *ConsistencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
	if cerr.Start != 15 || cerr.Window != 2 {
		t.Errorf("ConsistencyError = %+v, want Start=15 Window=2", cerr)
	}
}

type shortWindowFetcher struct{}

func (shortWindowFetcher) SearchTranscriptions(ctx context.Context, query string, pageSize, page int) (*blossom.SearchResponse, error) {
	return &blossom.SearchResponse{Count: 100, Results: makeResults(2)}, nil
}
