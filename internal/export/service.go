// Package export writes member search results as CSV or XLSX, reading the
// result one page at a time.
package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/internal/pkg/log"
	"github.com/rpattn/memberql/pkg/querydsl"
)

// Sheet is the worksheet XLSX exports are written to.
const Sheet = "Sheet1"

var headers = []string{"member_id", "username", "age", "team_id", "team_name"}

// Searcher pages through member search results.
type Searcher interface {
	SearchPage(ctx context.Context, cond domain.MemberSearchCondition, req querydsl.PageRequest, sorts ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error)
}

type Service struct {
	search   Searcher
	pageSize int
	sorts    []domain.MemberSort
}

type Option func(*Service)

func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithSort orders exported rows; by default they come in insertion order.
func WithSort(sorts ...domain.MemberSort) Option {
	return func(s *Service) {
		s.sorts = append(s.sorts, sorts...)
	}
}

func NewService(search Searcher, opts ...Option) *Service {
	service := &Service{search: search, pageSize: 500}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func formatRow(row domain.MemberTeamDto) []string {
	record := make([]string, len(headers))
	record[0] = strconv.FormatInt(row.MemberID, 10)
	if row.Username != nil {
		record[1] = *row.Username
	}
	record[2] = strconv.Itoa(row.Age)
	if row.TeamID != nil {
		record[3] = strconv.FormatInt(*row.TeamID, 10)
	}
	if row.TeamName != nil {
		record[4] = *row.TeamName
	}
	return record
}

// each calls fn for every row matching cond and returns the number of rows.
func (s *Service) each(ctx context.Context, cond domain.MemberSearchCondition, fn func(domain.MemberTeamDto) error) (int, error) {
	req, err := querydsl.NewPageRequest(0, s.pageSize)
	if err != nil {
		return 0, err
	}
	exported := 0
	for {
		if ctx.Err() != nil {
			return exported, ctx.Err()
		}
		page, err := s.search.SearchPage(ctx, cond, req, s.sorts...)
		if err != nil {
			return exported, fmt.Errorf("search members: %w", err)
		}
		for _, row := range page.Content {
			if err := fn(row); err != nil {
				return exported, err
			}
			exported++
		}
		// The searcher may clamp the limit, so step by what came back.
		if len(page.Content) == 0 || len(page.Content) < page.Limit || !page.HasNext() {
			return exported, nil
		}
		req.Offset = page.Offset + len(page.Content)
	}
}

// WriteCSV writes a header line and one line per matching member.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, cond domain.MemberSearchCondition) (int, error) {
	buffered := bufio.NewWriter(w)
	csvWriter := csv.NewWriter(buffered)
	if err := csvWriter.Write(headers); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n, err := s.each(ctx, cond, func(row domain.MemberTeamDto) error {
		if err := csvWriter.Write(formatRow(row)); err != nil {
			return fmt.Errorf("write member row: %w", err)
		}
		return nil
	})
	if err != nil {
		return n, err
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return n, fmt.Errorf("flush rows: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return n, fmt.Errorf("flush buffered rows: %w", err)
	}
	log.InfoWithContext(ctx, "exported %d members as csv", n)
	return n, nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(Sheet, cell, &cells)
}

// WriteXLSX writes a workbook with a header row and one row per matching
// member.
func (s *Service) WriteXLSX(ctx context.Context, w io.Writer, cond domain.MemberSearchCondition) (int, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := setRow(f, 1, headers); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	next := 2
	n, err := s.each(ctx, cond, func(row domain.MemberTeamDto) error {
		if err := setRow(f, next, formatRow(row)); err != nil {
			return fmt.Errorf("write member row: %w", err)
		}
		next++
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := f.Write(w); err != nil {
		return n, fmt.Errorf("write workbook: %w", err)
	}
	log.InfoWithContext(ctx, "exported %d members as xlsx", n)
	return n, nil
}
