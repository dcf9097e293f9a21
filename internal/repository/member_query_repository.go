package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/pkg/querydsl"
)

// ErrUnsupportedSort is returned for sort fields a search cannot order by.
var ErrUnsupportedSort = errors.New("unsupported sort field")

func memberTeamProjection() querydsl.Projection[domain.MemberTeamDto] {
	return querydsl.Construct5(domain.NewMemberTeamDto,
		member.ID, querydsl.Nullable(member.Username), member.Age,
		querydsl.Nullable(team.ID), querydsl.Nullable(team.Name))
}

func orderOf[T any](e querydsl.Expr[T], sort domain.MemberSort) querydsl.OrderSpecifier {
	order := e.Asc()
	if sort.Direction == domain.SortDirectionDesc {
		order = e.Desc()
	}
	switch sort.Nulls {
	case domain.NullOrderingFirst:
		order = order.NullsFirst()
	case domain.NullOrderingLast:
		order = order.NullsLast()
	}
	return order
}

// buildOrder maps sorts onto ORDER BY keys. Member ID always breaks ties
// so pages are stable; with no sorts results come in insertion order.
func buildOrder(sorts []domain.MemberSort) ([]querydsl.OrderSpecifier, error) {
	orders := make([]querydsl.OrderSpecifier, 0, len(sorts)+1)
	byID := false
	for _, s := range sorts {
		switch s.Field {
		case domain.MemberSortFieldID:
			orders = append(orders, orderOf(member.ID, s))
			byID = true
		case domain.MemberSortFieldUsername:
			orders = append(orders, orderOf(member.Username, s))
		case domain.MemberSortFieldAge:
			orders = append(orders, orderOf(member.Age, s))
		case domain.MemberSortFieldTeamName:
			orders = append(orders, orderOf(team.Name, s))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedSort, s.Field)
		}
	}
	if !byID {
		orders = append(orders, member.ID.Asc())
	}
	return orders, nil
}

func (r *memberRepository) searchQuery(cond domain.MemberSearchCondition, sorts []domain.MemberSort) (*querydsl.Query[domain.MemberTeamDto], error) {
	orders, err := buildOrder(sorts)
	if err != nil {
		return nil, err
	}
	return r.memberTeamQuery().
		Where(memberConditions(cond)...).
		OrderBy(orders...), nil
}

// countQuery counts the members cond matches. The team join is only kept
// when a filter reads the team, since a member has at most one team and the
// left join cannot change the count otherwise.
func (r *memberRepository) countQuery(cond domain.MemberSearchCondition) *querydsl.Query[int64] {
	q := querydsl.SelectFrom(r.factory, querydsl.Single(querydsl.CountAll()), member.Table)
	if needsTeam(cond) {
		q.LeftJoin(team.Table, member.TeamOn(team))
	}
	return q.Where(memberConditions(cond)...)
}

// Search returns every member matching cond with its team
func (r *memberRepository) Search(ctx context.Context, cond domain.MemberSearchCondition, sorts ...domain.MemberSort) ([]domain.MemberTeamDto, error) {
	q, err := r.searchQuery(cond, sorts)
	if err != nil {
		return nil, err
	}
	rows, err := q.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search members: %w", err)
	}
	return rows, nil
}

// SearchPageSimple returns one page of matches with the total carried by the
// content query
func (r *memberRepository) SearchPageSimple(ctx context.Context, cond domain.MemberSearchCondition, req querydsl.PageRequest, sorts ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error) {
	q, err := r.searchQuery(cond, sorts)
	if err != nil {
		return querydsl.Page[domain.MemberTeamDto]{}, err
	}
	page, err := querydsl.FetchPage(ctx, q, req)
	if err != nil {
		return page, fmt.Errorf("failed to search member page: %w", err)
	}
	return page, nil
}

// SearchPageComplex returns one page of matches and counts them with a
// separate query
func (r *memberRepository) SearchPageComplex(ctx context.Context, cond domain.MemberSearchCondition, req querydsl.PageRequest, sorts ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error) {
	q, err := r.searchQuery(cond, sorts)
	if err != nil {
		return querydsl.Page[domain.MemberTeamDto]{}, err
	}
	page, err := querydsl.FetchPageTwoQuery(ctx, q, r.countQuery(cond), req)
	if err != nil {
		return page, fmt.Errorf("failed to search member page: %w", err)
	}
	return page, nil
}

// SearchPageOptimized returns one page of matches, counting only when the
// page alone cannot tell the total
func (r *memberRepository) SearchPageOptimized(ctx context.Context, cond domain.MemberSearchCondition, req querydsl.PageRequest, sorts ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error) {
	q, err := r.searchQuery(cond, sorts)
	if err != nil {
		return querydsl.Page[domain.MemberTeamDto]{}, err
	}
	page, err := querydsl.FetchPageLazy(ctx, q, r.countQuery(cond), req)
	if err != nil {
		return page, fmt.Errorf("failed to search member page: %w", err)
	}
	return page, nil
}

// BulkRename sets the username of every member younger than maxAge
func (r *memberRepository) BulkRename(ctx context.Context, maxAge int, newName string) (int64, error) {
	n, err := r.factory.Update(memberRows.Table).
		Set(memberRows.Username.Set(newName)).
		Where(memberRows.Age.Lt(maxAge)).
		Execute(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to rename members: %w", err)
	}
	return n, nil
}

// BulkIncrementAge adds delta to the age of every member
func (r *memberRepository) BulkIncrementAge(ctx context.Context, delta int) (int64, error) {
	n, err := r.factory.Update(memberRows.Table).
		Set(memberRows.Age.SetExpr(querydsl.Add(memberRows.Age, delta))).
		Execute(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to increment member ages: %w", err)
	}
	return n, nil
}

// BulkDelete removes every member older than minAge
func (r *memberRepository) BulkDelete(ctx context.Context, minAge int) (int64, error) {
	n, err := r.factory.Delete(memberRows.Table).
		Where(memberRows.Age.Gt(minAge)).
		Execute(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete members: %w", err)
	}
	return n, nil
}
