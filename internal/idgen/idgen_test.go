package idgen

import (
	"math/rand/v2"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestNewFormat(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	g := NewWithSource(func() time.Time { return fixed }, rand.New(rand.NewPCG(1, 2)))

	id := g.New()
	prefix, suffix, ok := strings.Cut(id, "-")
	if !ok {
		t.Fatalf("New() = %q, want <millis>-<suffix>", id)
	}
	if prefix != "1700000000123" {
		t.Errorf("prefix = %q, want 1700000000123", prefix)
	}
	if len(suffix) != suffixLen {
		t.Errorf("suffix length = %d, want %d", len(suffix), suffixLen)
	}
	for _, r := range suffix {
		if !strings.ContainsRune(alphabet, r) {
			t.Errorf("suffix %q contains non base-36 rune %q", suffix, r)
		}
	}
}

func TestNewUnique(t *testing.T) {
	g := New()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := g.New()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q after %d calls", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestNewSortsByCreationTime(t *testing.T) {
	clock := time.UnixMilli(1700000000000)
	g := NewWithSource(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}, rand.New(rand.NewPCG(3, 4)))

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = g.New()
	}
	if !sort.StringsAreSorted(ids) {
		t.Errorf("ids are not sorted by creation time: %v", ids)
	}
}
