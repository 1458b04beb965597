package review

import (
	"strings"
	"testing"
	"unicode/utf8"

	"inboxpilot-backend/internal/classification/domain"
)

func row(id int64, subject, sender string, category domain.Category) *domain.Classification {
	return &domain.Classification{
		ID:       id,
		Category: category,
		Urgency:  domain.UrgencyMedium,
		Action:   domain.ActionReview,
		Version:  1,
		Email: &domain.Email{
			ID:      id,
			Subject: subject,
			Sender:  sender,
		},
	}
}

func TestApplyFilters_EmptyReturnsAllInOrder(t *testing.T) {
	rows := []*domain.Classification{
		row(1, "Invoice due", "billing@acme.com", domain.CategoryFinancial),
		row(2, "Swim schedule", "coach@pool.org", domain.CategoryKids),
	}

	got := ApplyFilters(rows, FilterState{})
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("expected all rows in order, got %v", got)
	}
}

func TestApplyFilters_CaseInsensitiveSubstring(t *testing.T) {
	rows := []*domain.Classification{
		row(1, "Invoice due", "billing@acme.com", domain.CategoryFinancial),
		row(2, "Swim schedule", "coach@pool.org", domain.CategoryKids),
	}

	got := ApplyFilters(rows, FilterState{"subject": "invoice"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected exactly the invoice row, got %d rows", len(got))
	}
}

func TestApplyFilters_Conjunction(t *testing.T) {
	rows := []*domain.Classification{
		row(1, "Invoice due", "billing@acme.com", domain.CategoryFinancial),
		row(2, "Invoice overdue", "books@club.org", domain.CategoryPersonal),
		row(3, "Swim schedule", "billing@acme.com", domain.CategoryKids),
	}

	got := ApplyFilters(rows, FilterState{"subject": "invoice", "sender": "acme"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only row 1 to satisfy both predicates, got %d rows", len(got))
	}
}

func TestApplyFilters_MissingEmail(t *testing.T) {
	orphan := &domain.Classification{ID: 9, Category: domain.CategoryOther}
	rows := []*domain.Classification{orphan}

	got := ApplyFilters(rows, FilterState{"subject": "anything"})
	if len(got) != 0 {
		t.Fatalf("row without an email must not match a subject filter, got %d rows", len(got))
	}

	got = ApplyFilters(rows, FilterState{})
	if len(got) != 1 {
		t.Fatalf("empty filter must keep the orphan row, got %d rows", len(got))
	}
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	rows := []*domain.Classification{
		row(1, "a", "x", domain.CategoryWork),
		row(2, "b", "y", domain.CategoryWork),
	}

	got := ApplyFilters(rows, FilterState{"subject": "b"})
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if rows[0].ID != 1 || rows[1].ID != 2 {
		t.Fatal("input slice was mutated")
	}
}

func TestFilterState_Set(t *testing.T) {
	fs := FilterState{}

	fs.Set("subject", "  hello  ")
	if fs["subject"] != "hello" {
		t.Fatalf("expected trimmed value, got %q", fs["subject"])
	}

	fs.Set("subject", strings.Repeat("x", 150))
	if len(fs["subject"]) != MaxFilterLength {
		t.Fatalf("expected truncation to %d, got %d", MaxFilterLength, len(fs["subject"]))
	}

	fs.Set("subject", "   ")
	if _, ok := fs["subject"]; ok {
		t.Fatal("whitespace-only value must clear the column filter")
	}
}

func TestFilterState_Set_MultiByte(t *testing.T) {
	fs := FilterState{}

	// 40 characters but 120 bytes; under the cap, must survive whole
	needle := strings.Repeat("€", 40)
	fs.Set("subject", needle)
	if fs["subject"] != needle {
		t.Fatalf("filter under the character cap must not be truncated, got %q", fs["subject"])
	}
	if !utf8.ValidString(fs["subject"]) {
		t.Fatal("stored filter is not valid UTF-8")
	}

	rows := []*domain.Classification{
		row(1, "Re: "+needle+" refund", "billing@acme.com", domain.CategoryFinancial),
	}
	got := ApplyFilters(rows, fs)
	if len(got) != 1 {
		t.Fatalf("expected the row containing the filter text, got %d rows", len(got))
	}

	// over the cap: truncation counts runes, not bytes
	fs.Set("subject", strings.Repeat("€", 150))
	if n := utf8.RuneCountInString(fs["subject"]); n != MaxFilterLength {
		t.Fatalf("expected truncation to %d characters, got %d", MaxFilterLength, n)
	}
	if !utf8.ValidString(fs["subject"]) {
		t.Fatal("truncated filter is not valid UTF-8")
	}
}

func TestApplyGlobalSearch(t *testing.T) {
	rows := []*domain.Classification{
		row(1, "Invoice due", "billing@acme.com", domain.CategoryFinancial),
		row(2, "Swim schedule", "coach@pool.org", domain.CategoryKids),
	}

	got := ApplyGlobalSearch(rows, "pool")
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected the pool.org row, got %d rows", len(got))
	}

	got = ApplyGlobalSearch(rows, "KIDS")
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected category match, got %d rows", len(got))
	}

	got = ApplyGlobalSearch(rows, "")
	if len(got) != 2 {
		t.Fatalf("empty query must keep everything, got %d rows", len(got))
	}
}
