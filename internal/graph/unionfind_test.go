package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnionFind_Components(t *testing.T) {
	uf := NewUnionFind(6)
	uf.Union(4, 1)
	uf.Union(2, 5)
	uf.Union(5, 4)

	want := [][]int{{0}, {1, 2, 4, 5}, {3}}
	if diff := cmp.Diff(want, uf.Components()); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestUnionFind_UnionReportsMerge(t *testing.T) {
	uf := NewUnionFind(3)
	if !uf.Union(0, 1) {
		t.Error("first union should merge")
	}
	if uf.Union(1, 0) {
		t.Error("second union of the same pair should not merge")
	}
	if uf.Find(0) != uf.Find(1) {
		t.Error("0 and 1 should share a representative")
	}
	if uf.Find(2) == uf.Find(0) {
		t.Error("2 should stay apart")
	}
}

func TestUnionFind_ComponentsPartition(t *testing.T) {
	const n = 50
	uf := NewUnionFind(n)
	for i := 0; i+3 < n; i += 3 {
		uf.Union(i, i+3)
	}
	seen := map[int]int{}
	for _, comp := range uf.Components() {
		for _, m := range comp {
			seen[m]++
		}
	}
	for i := 0; i < n; i++ {
		if seen[i] != 1 {
			t.Errorf("member %d appears %d times, want 1", i, seen[i])
		}
	}
}

func TestUnionFind_Empty(t *testing.T) {
	if got := NewUnionFind(0).Components(); len(got) != 0 {
		t.Errorf("Components() = %v, want empty", got)
	}
}
