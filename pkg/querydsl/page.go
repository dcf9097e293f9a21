package querydsl

import (
	"context"
	"fmt"
)

// PageRequest selects a window of Limit rows starting at Offset.
type PageRequest struct {
	Offset int
	Limit  int
}

func NewPageRequest(offset, limit int) (PageRequest, error) {
	req := PageRequest{Offset: offset, Limit: limit}
	return req, req.Validate()
}

// PageOfSize converts a zero-based page number into a request.
func PageOfSize(page, size int) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, fmt.Errorf("%w: page %d", ErrInvalidPageRequest, page)
	}
	return NewPageRequest(page*size, size)
}

func (r PageRequest) Validate() error {
	if r.Offset < 0 {
		return fmt.Errorf("%w: offset %d", ErrInvalidPageRequest, r.Offset)
	}
	if r.Limit <= 0 {
		return fmt.Errorf("%w: limit %d", ErrInvalidPageRequest, r.Limit)
	}
	return nil
}

func (r PageRequest) Next() PageRequest {
	return PageRequest{Offset: r.Offset + r.Limit, Limit: r.Limit}
}

// Page is one window of a larger result.
type Page[T any] struct {
	Content []T
	Total   int64
	Offset  int
	Limit   int
}

// Number is the zero-based page index.
func (p Page[T]) Number() int {
	if p.Limit <= 0 {
		return 0
	}
	return p.Offset / p.Limit
}

func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		if p.Total > 0 {
			return 1
		}
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

func (p Page[T]) HasNext() bool {
	return int64(p.Offset+len(p.Content)) < p.Total
}

// Counter is anything that can count the full result, typically the count
// query paired with a content query.
type Counter interface {
	FetchCount(ctx context.Context) (int64, error)
}

// TotalFunc counts the full result on demand.
type TotalFunc func(ctx context.Context) (int64, error)

// PageOf assembles a page, calling total only when the content cannot tell
// the total by itself. A first page shorter than the limit is the whole
// result; a later page that is non-empty and short is the last page.
func PageOf[T any](ctx context.Context, content []T, req PageRequest, total TotalFunc) (Page[T], error) {
	page := Page[T]{Content: content, Offset: req.Offset, Limit: req.Limit}
	size := len(content)
	switch {
	case req.Offset == 0 && size < req.Limit:
		page.Total = int64(size)
	case req.Offset > 0 && size > 0 && size < req.Limit:
		page.Total = int64(req.Offset + size)
	default:
		n, err := total(ctx)
		if err != nil {
			return page, err
		}
		page.Total = n
	}
	return page, nil
}

// FetchPage reads one page with the content query alone, carrying the total
// as a window count.
func FetchPage[T any](ctx context.Context, q *Query[T], req PageRequest) (Page[T], error) {
	if err := req.Validate(); err != nil {
		return Page[T]{}, err
	}
	return q.Clone().Restrict(req).FetchResults(ctx)
}

// FetchPageTwoQuery reads one page with the content query and always runs
// count. A nil count counts with q itself.
func FetchPageTwoQuery[T any](ctx context.Context, q *Query[T], count Counter, req PageRequest) (Page[T], error) {
	if err := req.Validate(); err != nil {
		return Page[T]{}, err
	}
	if count == nil {
		count = q
	}
	content, err := q.Clone().Restrict(req).Fetch(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	total, err := count.FetchCount(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Content: content, Total: total, Offset: req.Offset, Limit: req.Limit}, nil
}

// FetchPageLazy reads one page and runs count only when PageOf needs it.
func FetchPageLazy[T any](ctx context.Context, q *Query[T], count Counter, req PageRequest) (Page[T], error) {
	if err := req.Validate(); err != nil {
		return Page[T]{}, err
	}
	if count == nil {
		count = q
	}
	content, err := q.Clone().Restrict(req).Fetch(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	return PageOf(ctx, content, req, count.FetchCount)
}
