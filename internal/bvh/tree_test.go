package bvh

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/san-kum/physim/internal/linalg"
)

func sortedPairs(pairs []Pair[uint32]) []Pair[uint32] {
	out := make([]Pair[uint32], len(pairs))
	for i, p := range pairs {
		if p.A > p.B {
			p.A, p.B = p.B, p.A
		}
		out[i] = p
	}
	slices.SortFunc(out, func(a, b Pair[uint32]) int {
		if a.A != b.A {
			return int(a.A) - int(b.A)
		}
		return int(a.B) - int(b.B)
	})
	return out
}

func TestInsert(t *testing.T) {
	var tree Tree[uint32, Sphere]

	if tree.Size() != 0 || tree.Depth() != 0 {
		t.Fatal("zero tree should be empty")
	}
	if tree.Insert(0, NewSphere(linalg.Zero, 1)) {
		t.Error("zero id is reserved for internal nodes")
	}
	if !tree.Insert(1, NewSphere(linalg.Zero, 1)) {
		t.Fatal("expected insert to succeed")
	}
	if tree.Insert(1, NewSphere(linalg.Vec3{5, 0, 0}, 1)) {
		t.Error("duplicate insert should be ignored")
	}
	tree.Insert(2, NewSphere(linalg.Vec3{3, 0, 0}, 1))
	tree.Insert(3, NewSphere(linalg.Vec3{-3, 0, 0}, 1))

	if tree.Size() != 3 {
		t.Errorf("size = %d, want 3", tree.Size())
	}
	if !slices.Equal(tree.IDs(), []uint32{1, 2, 3}) {
		t.Errorf("ids = %v", tree.IDs())
	}
	if v, ok := tree.Volume(1); !ok || v.Center != linalg.Zero {
		t.Errorf("volume(1) = %v, %v", v, ok)
	}
	if err := tree.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestRemove(t *testing.T) {
	var tree Tree[uint32, Sphere]
	for i := uint32(1); i <= 5; i++ {
		tree.Insert(i, NewSphere(linalg.Vec3{float64(i) * 3, 0, 0}, 1))
	}

	if tree.Remove(42) {
		t.Error("removing an unknown id should report false")
	}

	for _, id := range []uint32{3, 1, 5, 2} {
		if !tree.Remove(id) {
			t.Fatalf("remove(%d) failed", id)
		}
		if tree.Has(id) {
			t.Fatalf("id %d still present", id)
		}
		if err := tree.Check(); err != nil {
			t.Fatalf("after remove(%d): %v", id, err)
		}
	}

	if tree.Size() != 1 || !tree.Has(4) {
		t.Fatalf("expected only id 4 left, got %v", tree.IDs())
	}
	tree.Remove(4)
	if tree.Size() != 0 || tree.Depth() != 0 {
		t.Error("removing the root should clear the tree")
	}

	if !tree.Insert(7, NewSphere(linalg.Zero, 1)) || tree.Check() != nil {
		t.Error("tree should be reusable after clearing")
	}
}

func TestUpdate(t *testing.T) {
	var tree Tree[uint32, Sphere]
	tree.Insert(1, NewSphere(linalg.Zero, 1))
	tree.Insert(2, NewSphere(linalg.Vec3{10, 0, 0}, 1))

	if len(tree.Pairs()) != 0 {
		t.Fatal("expected no pairs before update")
	}
	if !tree.Update(2, NewSphere(linalg.Vec3{1, 0, 0}, 1)) {
		t.Fatal("update failed")
	}
	if got := tree.Pairs(); len(got) != 1 {
		t.Errorf("expected one pair after update, got %v", got)
	}
	if tree.Update(9, NewSphere(linalg.Zero, 1)) {
		t.Error("update of unknown id should report false")
	}
}

func TestPairs(t *testing.T) {
	var tree Tree[uint32, Sphere]
	centers := []linalg.Vec3{
		{0, 0, 0},
		{1.5, 0, 0},
		{10, 0, 0},
		{11, 0, 0},
		{20, 0, 0},
		{0, 1.5, 0},
	}
	for i, c := range centers {
		tree.Insert(uint32(i+1), NewSphere(c, 1))
	}

	got := sortedPairs(tree.Pairs())
	want := []Pair[uint32]{{1, 2}, {1, 6}, {3, 4}}
	if !slices.Equal(got, want) {
		t.Errorf("pairs = %v, want %v", got, want)
	}
}

func TestPairs_Touching(t *testing.T) {
	var tree Tree[uint32, Sphere]
	tree.Insert(1, NewSphere(linalg.Zero, 1))
	tree.Insert(2, NewSphere(linalg.Vec3{2, 0, 0}, 1))

	if got := tree.Pairs(); len(got) != 0 {
		t.Errorf("touching spheres should not pair, got %v", got)
	}
}

func TestQuery(t *testing.T) {
	var tree Tree[uint32, AABB]
	for i := uint32(1); i <= 4; i++ {
		tree.Insert(i, NewAABB(linalg.Vec3{float64(i) * 4, 0, 0}, 1))
	}

	got := tree.Query(NewAABB(linalg.Vec3{6, 0, 0}, 1.5))
	slices.Sort(got)
	if !slices.Equal(got, []uint32{1, 2}) {
		t.Errorf("query = %v, want [1 2]", got)
	}
}

func TestCheck_DetectsStaleVolume(t *testing.T) {
	var tree Tree[uint32, Sphere]
	tree.Insert(1, NewSphere(linalg.Zero, 1))
	tree.Insert(2, NewSphere(linalg.Vec3{4, 0, 0}, 1))

	tree.nodes[tree.root].volume = NewSphere(linalg.Zero, 0.5)
	if err := tree.Check(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestSphereUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Sphere
		want Sphere
	}{
		{"disjoint", NewSphere(linalg.Zero, 1), NewSphere(linalg.Vec3{4, 0, 0}, 1), NewSphere(linalg.Vec3{2, 0, 0}, 3)},
		{"contained", NewSphere(linalg.Zero, 3), NewSphere(linalg.Vec3{1, 0, 0}, 1), NewSphere(linalg.Zero, 3)},
		{"containing", NewSphere(linalg.Vec3{1, 0, 0}, 1), NewSphere(linalg.Zero, 3), NewSphere(linalg.Zero, 3)},
		{"concentric", NewSphere(linalg.Zero, 1), NewSphere(linalg.Zero, 2), NewSphere(linalg.Zero, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Union(tt.b)
			if !linalg.ApproxEqual(got.Center, tt.want.Center, 1e-12) || math.Abs(got.Radius-tt.want.Radius) > 1e-12 {
				t.Errorf("union = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSphereGrowth(t *testing.T) {
	s := NewSphere(linalg.Zero, 1)
	if g := s.Growth(NewSphere(linalg.Vec3{0.5, 0, 0}, 0.1)); g != 0 {
		t.Errorf("enclosed sphere should not grow the volume, got %f", g)
	}
	if g := s.Growth(NewSphere(linalg.Vec3{4, 0, 0}, 1)); math.Abs(g-8) > 1e-12 {
		t.Errorf("growth = %f, want 8", g)
	}
}

func TestAABB(t *testing.T) {
	a := NewAABB(linalg.Zero, 1)
	b := NewAABB(linalg.Vec3{1.5, 0, 0}, 1)
	c := NewAABB(linalg.Vec3{2, 0, 0}, 1)

	if !a.Overlaps(b) {
		t.Error("expected a and b to overlap")
	}
	if a.Overlaps(c) {
		t.Error("boxes sharing a face should not overlap")
	}
	if a.Size() != 24 {
		t.Errorf("surface area = %f, want 24", a.Size())
	}
	u := a.Union(c)
	if u.Min != (linalg.Vec3{-1, -1, -1}) || u.Max != (linalg.Vec3{3, 1, 1}) {
		t.Errorf("union = %v", u)
	}
	if g := a.Growth(c); g != u.Size()-24 {
		t.Errorf("growth = %f", g)
	}
}
