package paging

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// source serves ids 0..total-1 with id-boundary cursors.
type source struct {
	total   int
	calls   int
	cursors []string
	cursor  bool
}

func (s *source) fetch(ctx context.Context, cursor string, limit int) ([]int, string, error) {
	s.calls++
	s.cursors = append(s.cursors, cursor)
	start := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &start)
		start++
	}
	var out []int
	for i := start; i < s.total && len(out) < limit; i++ {
		out = append(out, i)
	}
	next := ""
	if s.cursor && len(out) > 0 {
		next = fmt.Sprint(out[len(out)-1])
	}
	return out, next, nil
}

func TestExhausted(t *testing.T) {
	tests := []struct {
		n, limit int
		want     bool
	}{
		{20, 20, false},
		{19, 20, true},
		{0, 20, true},
		{21, 20, false},
	}
	for _, tt := range tests {
		if got := Exhausted(tt.n, tt.limit); got != tt.want {
			t.Errorf("Exhausted(%d, %d) = %v, want %v", tt.n, tt.limit, got, tt.want)
		}
	}
}

func TestPagerBoundary(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantCalls int
	}{
		{"short first page stops", 4, 1},
		{"limit minus one stops", 9, 2},
		{"exact multiple asks once more", 10, 3},
		{"empty list", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &source{total: tt.total}
			p := New(5, src.fetch, WithBoundary(func(i int) string { return fmt.Sprint(i) }))

			all, err := p.Collect(context.Background(), 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != tt.total {
				t.Errorf("collected %d items, want %d", len(all), tt.total)
			}
			if src.calls != tt.wantCalls {
				t.Errorf("fetch calls = %d, want %d", src.calls, tt.wantCalls)
			}
			if p.HasMore() {
				t.Error("pager should be exhausted")
			}

			// No further requests once exhausted.
			items, err := p.Next(context.Background())
			if items != nil || err != nil || src.calls != tt.wantCalls {
				t.Errorf("Next after exhaustion = %v, %v (calls %d)", items, err, src.calls)
			}
		})
	}
}

func TestPagerUsesServerCursor(t *testing.T) {
	src := &source{total: 12, cursor: true}
	p := New(5, src.fetch)
	if _, err := p.Collect(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	want := []string{"", "4", "9"}
	if fmt.Sprint(src.cursors) != fmt.Sprint(want) {
		t.Errorf("cursors = %v, want %v", src.cursors, want)
	}
}

func TestPagerStopsWithoutCursor(t *testing.T) {
	src := &source{total: 12}
	p := New(5, src.fetch)
	items, err := p.Next(context.Background())
	if err != nil || len(items) != 5 {
		t.Fatalf("Next = %v, %v", items, err)
	}
	if p.HasMore() {
		t.Error("a full page without any cursor cannot continue")
	}
}

func TestPagerErrorKeepsCursor(t *testing.T) {
	fail := true
	p := New(2, func(ctx context.Context, cursor string, limit int) ([]string, string, error) {
		if fail {
			return nil, "", errors.New("down")
		}
		return []string{"a", "b"}, "b", nil
	})
	if _, err := p.Next(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !p.HasMore() || p.Pages() != 0 {
		t.Error("failed fetch must not advance the pager")
	}
	fail = false
	if _, err := p.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Cursor() != "b" {
		t.Errorf("cursor = %q, want b", p.Cursor())
	}
	p.Reset()
	if p.Cursor() != "" || p.Pages() != 0 || !p.HasMore() {
		t.Error("Reset should clear state")
	}
}

func TestCollectCap(t *testing.T) {
	src := &source{total: 100, cursor: true}
	p := New(10, src.fetch)
	all, err := p.Collect(context.Background(), 15)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 15 || src.calls != 2 {
		t.Errorf("len=%d calls=%d, want 15 and 2", len(all), src.calls)
	}
}
