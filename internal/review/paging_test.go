package review

import (
	"testing"

	"inboxpilot-backend/internal/classification/domain"
)

func confRow(id int64, confidence int, category domain.Category) *domain.Classification {
	r := row(id, "subject", "sender", category)
	r.Confidence = confidence
	return r
}

func TestSortRows_Stability(t *testing.T) {
	rows := []*domain.Classification{
		confRow(1, 50, domain.CategoryWork),
		confRow(2, 50, domain.CategoryWork),
		confRow(3, 50, domain.CategoryWork),
	}

	sorted := SortRows(rows, SortState{Column: "confidence", Dir: SortAsc})
	for i, want := range []int64{1, 2, 3} {
		if sorted[i].ID != want {
			t.Fatalf("equal keys must keep original order, got %d at %d", sorted[i].ID, i)
		}
	}

	// re-sorting must not reorder ties either
	again := SortRows(sorted, SortState{Column: "confidence", Dir: SortDesc})
	for i, want := range []int64{1, 2, 3} {
		if again[i].ID != want {
			t.Fatalf("re-sort reordered equal keys, got %d at %d", again[i].ID, i)
		}
	}
}

func TestSortRows_FlipReverses(t *testing.T) {
	rows := []*domain.Classification{
		confRow(1, 30, domain.CategoryWork),
		confRow(2, 10, domain.CategoryWork),
		confRow(3, 20, domain.CategoryWork),
	}

	asc := SortRows(rows, SortState{Column: "confidence", Dir: SortAsc})
	desc := SortRows(rows, SortState{Column: "confidence", Dir: SortDesc})

	for i := range asc {
		if asc[i].ID != desc[len(desc)-1-i].ID {
			t.Fatalf("descending is not the exact reverse at index %d", i)
		}
	}
}

func TestSortRows_DoesNotMutateInput(t *testing.T) {
	rows := []*domain.Classification{
		confRow(1, 30, domain.CategoryWork),
		confRow(2, 10, domain.CategoryWork),
	}
	SortRows(rows, SortState{Column: "confidence", Dir: SortAsc})
	if rows[0].ID != 1 || rows[1].ID != 2 {
		t.Fatal("input slice was mutated")
	}
}

func TestSortState_Toggle(t *testing.T) {
	s := SortState{}

	s.Toggle("confidence")
	if s.Column != "confidence" || s.Dir != SortDesc {
		t.Fatalf("new column must adopt descending, got %+v", s)
	}

	s.Toggle("confidence")
	if s.Dir != SortAsc {
		t.Fatalf("same column must flip direction, got %+v", s)
	}

	s.Toggle("subject")
	if s.Column != "subject" || s.Dir != SortDesc {
		t.Fatalf("switching column must reset to descending, got %+v", s)
	}
}

func TestDerivePage_Windows(t *testing.T) {
	rows := make([]*domain.Classification, 5)
	for i := range rows {
		rows[i] = confRow(int64(i+1), i, domain.CategoryWork)
	}

	page := DerivePage(rows, 2, 2)
	if page.PageCount != 3 || page.TotalCount != 5 {
		t.Fatalf("expected 3 pages of 5 rows, got %+v", page)
	}
	if len(page.Rows) != 2 || page.Rows[0].ID != 3 || page.Rows[1].ID != 4 {
		t.Fatalf("wrong window for page 2: %+v", page.Rows)
	}
}

func TestDerivePage_Clamps(t *testing.T) {
	rows := make([]*domain.Classification, 5)
	for i := range rows {
		rows[i] = confRow(int64(i+1), i, domain.CategoryWork)
	}

	page := DerivePage(rows, 99, 2)
	if page.Page != 3 {
		t.Fatalf("expected clamp to last page 3, got %d", page.Page)
	}
	if len(page.Rows) != 1 || page.Rows[0].ID != 5 {
		t.Fatalf("wrong rows on clamped page: %+v", page.Rows)
	}

	page = DerivePage(rows, 0, 2)
	if page.Page != 1 {
		t.Fatalf("expected clamp to page 1, got %d", page.Page)
	}
}

func TestDerivePage_Empty(t *testing.T) {
	page := DerivePage(nil, 1, 10)
	if page.PageCount != 0 {
		t.Fatalf("pageCount of an empty set must be 0, got %d", page.PageCount)
	}
	if page.Page != 1 || len(page.Rows) != 0 {
		t.Fatalf("expected page 1 with no rows, got %+v", page)
	}
}
