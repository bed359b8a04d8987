package store

import (
	"testing"
	"time"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	cases := []struct {
		page Page
		want int
	}{
		{Page{}, 5},
		{Page{Skip: 2}, 3},
		{Page{Limit: 2}, 2},
		{Page{Skip: 4, Limit: 3}, 1},
		{Page{Skip: 9, Limit: 3}, 0},
	}
	for _, tc := range cases {
		if got := len(Paginate(items, tc.page)); got != tc.want {
			t.Fatalf("Paginate(%+v) returned %d items, want %d", tc.page, got, tc.want)
		}
	}
	if got := Paginate(items, Page{Skip: 1, Limit: 2}); got[0] != 2 || got[1] != 3 {
		t.Fatalf("expected skip before limit, got %v", got)
	}
}

func TestTimeRangeContains(t *testing.T) {
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 12, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	r := TimeRange{From: &from, To: &to}
	if !r.Contains(from) || !r.Contains(to) {
		t.Fatalf("expected bounds to be inclusive")
	}
	if r.Contains(from.Add(-time.Millisecond)) || r.Contains(to.Add(time.Millisecond)) {
		t.Fatalf("expected values outside bounds to be excluded")
	}
	if !(TimeRange{}).Contains(time.Now()) {
		t.Fatalf("expected open range to contain everything")
	}
}

func TestNewIDShape(t *testing.T) {
	if id := NewID(); !IsObjectID(id) {
		t.Fatalf("expected 24 hex chars, got %q", id)
	}
}

func TestIsObjectID(t *testing.T) {
	for id, want := range map[string]bool{
		"507f191e810c19729de860ea":  true,
		"507F191E810C19729DE860EA":  true,
		"abc123":                    false,
		"507f191e810c19729de860eg":  false,
		"507f191e810c19729de860ea0": false,
		"":                          false,
	} {
		if got := IsObjectID(id); got != want {
			t.Fatalf("IsObjectID(%q) = %v, want %v", id, got, want)
		}
	}
}
