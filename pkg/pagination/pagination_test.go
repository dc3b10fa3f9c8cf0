package pagination

import (
	"testing"
	"time"
)

func TestValidateClampsParams(t *testing.T) {
	p := &PaginationParams{Page: 0, PerPage: 500}
	p.Validate()
	if p.Page != 1 {
		t.Fatalf("expected page 1, got %d", p.Page)
	}
	if p.PerPage != MaxPerPage {
		t.Fatalf("expected per_page %d, got %d", MaxPerPage, p.PerPage)
	}
	p = &PaginationParams{Page: 3, PerPage: 0}
	p.Validate()
	if p.PerPage != DefaultPerPage || p.Offset() != 2*DefaultPerPage {
		t.Fatalf("expected default per_page and offset 20, got %d/%d", p.PerPage, p.Offset())
	}
}

func TestEnvelopeShape(t *testing.T) {
	res := NewPaginatedResult([]string{"a", "b"}, NewPagination(2, 10, 21))
	env := res.Envelope("branches")
	if env["pages"] != 3 {
		t.Fatalf("expected 3 pages, got %v", env["pages"])
	}
	if env["current_page"] != 2 {
		t.Fatalf("expected current_page 2, got %v", env["current_page"])
	}
	if env["total"] != int64(21) {
		t.Fatalf("expected total 21, got %v", env["total"])
	}
	items, ok := env["branches"].([]string)
	if !ok || len(items) != 2 {
		t.Fatalf("expected branches slice of 2, got %#v", env["branches"])
	}
}

func TestNilItemsBecomeEmptySlice(t *testing.T) {
	res := NewPaginatedResult[int](nil, NewPagination(1, 10, 0))
	if res.Items == nil {
		t.Fatalf("expected non-nil items so JSON renders []")
	}
}

func TestCursorRoundTripAndTrim(t *testing.T) {
	type row struct {
		id string
		at time.Time
	}
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := []row{{"c", base.Add(2 * time.Minute)}, {"b", base.Add(time.Minute)}, {"a", base}}

	p, kept := NewCursorPagination(rows, 2, func(r row) string { return r.id }, func(r row) time.Time { return r.at })
	if !p.HasNext || len(kept) != 2 {
		t.Fatalf("expected has_next with 2 rows kept, got %v/%d", p.HasNext, len(kept))
	}
	params := &CursorParams{Cursor: *p.NextCursor}
	cur, err := params.DecodeCursor()
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	if cur.ID != "b" || !cur.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("expected cursor at row b, got %+v", cur)
	}

	p, kept = NewCursorPagination(rows[:1], 2, func(r row) string { return r.id }, func(r row) time.Time { return r.at })
	if p.HasNext || p.NextCursor != nil || len(kept) != 1 {
		t.Fatalf("expected final page without cursor")
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	params := &CursorParams{Cursor: "%%%"}
	if _, err := params.DecodeCursor(); err == nil {
		t.Fatalf("expected error for malformed cursor")
	}
}
