// Package search is the member search facade: optional-condition search,
// paged search and the bulk mutations, with request-scoped logging.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/internal/pkg/log"
	"github.com/rpattn/memberql/internal/repository"
	"github.com/rpattn/memberql/pkg/querydsl"
)

var (
	// ErrUnboundedSearch is returned for an unpaged search whose condition
	// matches every member when the service requires a condition.
	ErrUnboundedSearch = errors.New("search condition matches every member")
	ErrInvalidArgument = errors.New("invalid argument")
)

// CountStrategy selects how SearchPage obtains the total.
type CountStrategy string

const (
	// CountLazy counts only when the page cannot tell the total.
	CountLazy CountStrategy = "lazy"
	// CountTwoQuery always runs a separate count query.
	CountTwoQuery CountStrategy = "two-query"
	// CountCombined carries the total on the content query.
	CountCombined CountStrategy = "combined"
)

// ParseCountStrategy accepts the names used in configuration.
func ParseCountStrategy(s string) (CountStrategy, error) {
	switch CountStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CountLazy:
		return CountLazy, nil
	case CountTwoQuery:
		return CountTwoQuery, nil
	case CountCombined:
		return CountCombined, nil
	}
	return "", fmt.Errorf("%w: unknown count strategy %q", ErrInvalidArgument, s)
}

// BulkHook runs after a bulk mutation changed rows, e.g. to drop cached
// teams or members.
type BulkHook func(ctx context.Context)

type Service struct {
	members          repository.MemberQueryRepository
	strategy         CountStrategy
	defaultPageSize  int
	maxPageSize      int
	requireCondition bool
	afterBulk        []BulkHook
}

type Option func(*Service)

func WithCountStrategy(strategy CountStrategy) Option {
	return func(s *Service) {
		if strategy != "" {
			s.strategy = strategy
		}
	}
}

func WithDefaultPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.defaultPageSize = size
		}
	}
}

func WithMaxPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxPageSize = size
		}
	}
}

// WithRequireCondition makes Search refuse conditions that match every
// member. SearchPage is always bounded and unaffected.
func WithRequireCondition(required bool) Option {
	return func(s *Service) {
		s.requireCondition = required
	}
}

func WithAfterBulk(hooks ...BulkHook) Option {
	return func(s *Service) {
		s.afterBulk = append(s.afterBulk, hooks...)
	}
}

func NewService(members repository.MemberQueryRepository, opts ...Option) *Service {
	service := &Service{
		members:         members,
		strategy:        CountLazy,
		defaultPageSize: 20,
		maxPageSize:     1000,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.maxPageSize < service.defaultPageSize {
		service.maxPageSize = service.defaultPageSize
	}
	return service
}

func withRequest(ctx context.Context) context.Context {
	if log.RequestID(ctx) != "" {
		return ctx
	}
	return log.WithRequestID(ctx, uuid.NewString())
}

// matchesAll reports and logs conditions that do not constrain the search.
func matchesAll(ctx context.Context, op string, cond domain.MemberSearchCondition) bool {
	if repository.MemberSearchFilter(cond).Present() {
		return false
	}
	log.WarnWithContext(ctx, "%s: empty search condition matches every member", op)
	return true
}

// Search returns every member matching cond ordered by sorts, then by
// insertion.
func (s *Service) Search(ctx context.Context, cond domain.MemberSearchCondition, sorts ...domain.MemberSort) ([]domain.MemberTeamDto, error) {
	ctx = withRequest(ctx)
	if matchesAll(ctx, "search", cond) && s.requireCondition {
		return nil, ErrUnboundedSearch
	}
	log.DebugStruct(cond)

	rows, err := s.members.Search(ctx, cond, sorts...)
	if err != nil {
		log.ErrorWithContext(ctx, "search failed: %v", err)
		return nil, err
	}
	log.DebugWithContext(ctx, "search matched %d members", len(rows))
	return rows, nil
}

// PageRequest resolves a page request, filling in the default size and
// clamping to the maximum.
func (s *Service) PageRequest(offset, limit int) (querydsl.PageRequest, error) {
	if limit == 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return querydsl.NewPageRequest(offset, limit)
}

// SearchPage returns one page of matches and the total number of matches,
// counted with the configured strategy.
func (s *Service) SearchPage(ctx context.Context, cond domain.MemberSearchCondition, req querydsl.PageRequest, sorts ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error) {
	ctx = withRequest(ctx)
	matchesAll(ctx, "search page", cond)

	req, err := s.PageRequest(req.Offset, req.Limit)
	if err != nil {
		return querydsl.Page[domain.MemberTeamDto]{}, err
	}

	var page querydsl.Page[domain.MemberTeamDto]
	switch s.strategy {
	case CountTwoQuery:
		page, err = s.members.SearchPageComplex(ctx, cond, req, sorts...)
	case CountCombined:
		page, err = s.members.SearchPageSimple(ctx, cond, req, sorts...)
	default:
		page, err = s.members.SearchPageOptimized(ctx, cond, req, sorts...)
	}
	if err != nil {
		log.ErrorWithContext(ctx, "search page failed: %v", err)
		return page, err
	}
	log.DebugWithContext(ctx, "search page offset=%d limit=%d returned %d of %d", req.Offset, req.Limit, len(page.Content), page.Total)
	return page, nil
}

// BulkRename renames every member younger than maxAge.
func (s *Service) BulkRename(ctx context.Context, maxAge int, newName string) (int64, error) {
	ctx = withRequest(ctx)
	if strings.TrimSpace(newName) == "" {
		return 0, fmt.Errorf("%w: new name is blank", ErrInvalidArgument)
	}
	return s.bulk(ctx, "bulk rename", func() (int64, error) {
		return s.members.BulkRename(ctx, maxAge, newName)
	})
}

// BulkIncrementAge adds delta to every member's age.
func (s *Service) BulkIncrementAge(ctx context.Context, delta int) (int64, error) {
	ctx = withRequest(ctx)
	return s.bulk(ctx, "bulk increment age", func() (int64, error) {
		return s.members.BulkIncrementAge(ctx, delta)
	})
}

// BulkDelete removes every member older than minAge.
func (s *Service) BulkDelete(ctx context.Context, minAge int) (int64, error) {
	ctx = withRequest(ctx)
	return s.bulk(ctx, "bulk delete", func() (int64, error) {
		return s.members.BulkDelete(ctx, minAge)
	})
}

func (s *Service) bulk(ctx context.Context, op string, run func() (int64, error)) (int64, error) {
	n, err := run()
	if err != nil {
		log.ErrorWithContext(ctx, "%s failed: %v", op, err)
		return 0, err
	}
	log.InfoWithContext(ctx, "%s affected %d members", op, n)
	if n > 0 {
		for _, hook := range s.afterBulk {
			hook(ctx)
		}
	}
	return n, nil
}
