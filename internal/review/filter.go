package review

import (
	"strings"

	"inboxpilot-backend/internal/classification/domain"
)

// MaxFilterLength caps filter text at the input boundary
const MaxFilterLength = 100

// FilterColumns lists the columns a reviewer can filter on
var FilterColumns = []string{"subject", "sender", "category", "urgency", "action"}

// FilterState maps column key to a free-text predicate. Absent or empty
// means no constraint on that column.
type FilterState map[string]string

// truncateFilter caps a predicate at MaxFilterLength characters. The cap is
// counted in runes so multi-byte text is never cut mid-rune.
func truncateFilter(value string) string {
	runes := []rune(value)
	if len(runes) > MaxFilterLength {
		return string(runes[:MaxFilterLength])
	}
	return value
}

// Set stores a trimmed, length-capped predicate. Whitespace-only values
// clear the column's constraint.
func (f FilterState) Set(column, value string) {
	value = truncateFilter(strings.TrimSpace(value))
	if value == "" {
		delete(f, column)
		return
	}
	f[column] = value
}

// Clone returns an independent copy
func (f FilterState) Clone() FilterState {
	clone := make(FilterState, len(f))
	for column, value := range f {
		clone[column] = value
	}
	return clone
}

// columnText derives the comparison text for a filterable column.
// A missing joined email yields an empty string, never a panic.
func columnText(row *domain.Classification, column string) string {
	switch column {
	case "subject":
		if row.Email == nil {
			return ""
		}
		return row.Email.Subject
	case "sender":
		if row.Email == nil {
			return ""
		}
		return row.Email.Sender
	case "category":
		return string(row.Category)
	case "urgency":
		return string(row.Urgency)
	case "action":
		return string(row.Action)
	}
	return ""
}

func matches(text, needle string) bool {
	return strings.Contains(
		strings.ToLower(strings.TrimSpace(text)),
		strings.ToLower(strings.TrimSpace(needle)),
	)
}

// ApplyFilters returns the rows passing every non-empty column predicate.
// Matching is case-insensitive literal substring containment on trimmed
// text. The input slice is never mutated; row order is preserved.
func ApplyFilters(rows []*domain.Classification, filters FilterState) []*domain.Classification {
	active := make(map[string]string, len(filters))
	for column, value := range filters {
		if strings.TrimSpace(value) != "" {
			active[column] = value
		}
	}
	if len(active) == 0 {
		out := make([]*domain.Classification, len(rows))
		copy(out, rows)
		return out
	}

	out := make([]*domain.Classification, 0, len(rows))
	for _, row := range rows {
		keep := true
		for column, needle := range active {
			if !matches(columnText(row, column), needle) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

// ApplyGlobalSearch keeps rows where any filterable column contains the
// query. An empty query keeps everything.
func ApplyGlobalSearch(rows []*domain.Classification, query string) []*domain.Classification {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]*domain.Classification, len(rows))
		copy(out, rows)
		return out
	}

	out := make([]*domain.Classification, 0, len(rows))
	for _, row := range rows {
		for _, column := range FilterColumns {
			if matches(columnText(row, column), query) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
