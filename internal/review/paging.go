package review

import (
	"sort"
	"strings"

	"inboxpilot-backend/internal/classification/domain"
)

// SortDir is the sort direction
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// SortState is the active sort column and direction
type SortState struct {
	Column string  `json:"column"`
	Dir    SortDir `json:"dir"`
}

// Toggle flips direction when column is already active, otherwise adopts
// the new column with the descending product default.
func (s *SortState) Toggle(column string) {
	if s.Column == column {
		if s.Dir == SortAsc {
			s.Dir = SortDesc
		} else {
			s.Dir = SortAsc
		}
		return
	}
	s.Column = column
	s.Dir = SortDesc
}

// sortLess compares two rows on the designated column, ascending
func sortLess(a, b *domain.Classification, column string) (less, equal bool) {
	switch column {
	case "confidence":
		return a.Confidence < b.Confidence, a.Confidence == b.Confidence
	case "classified_at":
		return a.ClassifiedAt.Before(b.ClassifiedAt), a.ClassifiedAt.Equal(b.ClassifiedAt)
	case "id":
		return a.ID < b.ID, a.ID == b.ID
	default:
		av := strings.ToLower(columnText(a, column))
		bv := strings.ToLower(columnText(b, column))
		return av < bv, av == bv
	}
}

// SortRows returns a stably sorted copy: ties keep their original relative
// order across re-sorts. The input slice is not mutated.
func SortRows(rows []*domain.Classification, state SortState) []*domain.Classification {
	out := make([]*domain.Classification, len(rows))
	copy(out, rows)
	if state.Column == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		less, equal := sortLess(out[i], out[j], state.Column)
		if equal {
			return false
		}
		if state.Dir == SortAsc {
			return less
		}
		return !less
	})
	return out
}

// Page is one derived window over a filtered, sorted row set
type Page struct {
	Rows       []*domain.Classification `json:"rows"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalCount int                      `json:"total_count"`
	PageCount  int                      `json:"page_count"`
}

// DerivePage slices the requested page window. An out-of-range page index
// clamps into the valid range instead of failing; an empty row set yields
// page 1 of 0 pages.
func DerivePage(rows []*domain.Classification, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 1
	}

	totalCount := len(rows)
	pageCount := (totalCount + pageSize - 1) / pageSize

	if page < 1 {
		page = 1
	}
	if pageCount > 0 && page > pageCount {
		page = pageCount
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > totalCount {
		start = totalCount
	}
	if end > totalCount {
		end = totalCount
	}

	return Page{
		Rows:       rows[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		PageCount:  pageCount,
	}
}
