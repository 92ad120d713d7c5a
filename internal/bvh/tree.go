package bvh

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"
)

// ErrCorrupt is wrapped by Check when a tree invariant does not hold.
var ErrCorrupt = errors.New("bvh: corrupt tree")

// Volume is the bounding volume a tree is built over. Union must enclose
// both operands, Growth is how much the receiver would grow to enclose
// other, and Size is used to decide which subtree to descend first.
type Volume[V any] interface {
	comparable
	Overlaps(other V) bool
	Union(other V) V
	Growth(other V) float64
	Size() float64
}

// Pair is a candidate collision between two leaves.
type Pair[K constraints.Integer] struct {
	A, B K
}

const none = -1

type node[K constraints.Integer, V Volume[V]] struct {
	parent, left, right int
	volume              V
	id                  K
}

type entry[K constraints.Integer] struct {
	id   K
	node int
}

// Tree is a bounding volume hierarchy keyed by K. The zero identifier is
// reserved for internal nodes. The zero value is an empty tree.
type Tree[K constraints.Integer, V Volume[V]] struct {
	nodes []node[K, V]
	free  []int
	root  int
	ids   []entry[K] // sorted by id
}

func New[K constraints.Integer, V Volume[V]]() *Tree[K, V] {
	return &Tree[K, V]{}
}

func (t *Tree[K, V]) Size() int { return len(t.ids) }

func (t *Tree[K, V]) Has(id K) bool {
	_, ok := t.find(id)
	return ok
}

// Volume returns the volume stored for id.
func (t *Tree[K, V]) Volume(id K) (V, bool) {
	pos, ok := t.find(id)
	if !ok {
		var zero V
		return zero, false
	}
	return t.nodes[t.ids[pos].node].volume, true
}

// IDs returns the leaf identifiers in ascending order.
func (t *Tree[K, V]) IDs() []K {
	out := make([]K, len(t.ids))
	for i, e := range t.ids {
		out[i] = e.id
	}
	return out
}

// Insert adds a leaf. Duplicate and zero identifiers are ignored and
// reported by a false return.
func (t *Tree[K, V]) Insert(id K, volume V) bool {
	if id == 0 || t.Has(id) {
		return false
	}

	if len(t.ids) == 0 {
		t.reset()
		t.root = t.alloc(none, volume, id)
		t.index(id, t.root)
		return true
	}

	n := t.root
	for !t.isLeaf(n) {
		l, r := t.nodes[n].left, t.nodes[n].right
		if t.nodes[l].volume.Growth(volume) < t.nodes[r].volume.Growth(volume) {
			n = l
		} else {
			n = r
		}
	}

	oldID, oldVolume := t.nodes[n].id, t.nodes[n].volume
	kept := t.alloc(n, oldVolume, oldID)
	added := t.alloc(n, volume, id)

	t.nodes[n].left = kept
	t.nodes[n].right = added
	t.nodes[n].id = 0

	t.reindex(oldID, kept)
	t.index(id, added)
	t.refit(n)
	return true
}

// Remove deletes the leaf for id and reports whether it was present.
func (t *Tree[K, V]) Remove(id K) bool {
	pos, ok := t.find(id)
	if !ok {
		return false
	}
	n := t.ids[pos].node
	t.ids = slices.Delete(t.ids, pos, pos+1)

	if n == t.root {
		t.reset()
		return true
	}

	parent := t.nodes[n].parent
	sibling := t.nodes[parent].left
	if sibling == n {
		sibling = t.nodes[parent].right
	}
	grand := t.nodes[parent].parent

	t.nodes[sibling].parent = grand
	switch {
	case grand == none:
		t.root = sibling
	case t.nodes[grand].left == parent:
		t.nodes[grand].left = sibling
	default:
		t.nodes[grand].right = sibling
	}

	t.release(n)
	t.release(parent)
	t.refit(grand)
	return true
}

// Update replaces the volume of id by removing and reinserting it. It
// reports whether id was present.
func (t *Tree[K, V]) Update(id K, volume V) bool {
	if !t.Remove(id) {
		return false
	}
	return t.Insert(id, volume)
}

// Clear removes every leaf and keeps the allocated storage.
func (t *Tree[K, V]) Clear() {
	t.ids = t.ids[:0]
	t.reset()
}

// Pairs returns every pair of leaves whose volumes overlap.
func (t *Tree[K, V]) Pairs() []Pair[K] {
	return t.AppendPairs(nil)
}

// AppendPairs appends the overlapping leaf pairs to dst. For each internal
// node the leaves of the left subtree are tested against those of the right
// subtree, so every pair is reported exactly once.
func (t *Tree[K, V]) AppendPairs(dst []Pair[K]) []Pair[K] {
	if len(t.ids) < 2 {
		return dst
	}
	return t.collect(t.root, dst)
}

func (t *Tree[K, V]) collect(n int, dst []Pair[K]) []Pair[K] {
	if t.isLeaf(n) {
		return dst
	}
	l, r := t.nodes[n].left, t.nodes[n].right
	dst = t.cross(l, r, dst)
	dst = t.collect(l, dst)
	return t.collect(r, dst)
}

func (t *Tree[K, V]) cross(a, b int, dst []Pair[K]) []Pair[K] {
	na, nb := &t.nodes[a], &t.nodes[b]
	if !na.volume.Overlaps(nb.volume) {
		return dst
	}

	aLeaf, bLeaf := t.isLeaf(a), t.isLeaf(b)
	if aLeaf && bLeaf {
		return append(dst, Pair[K]{A: na.id, B: nb.id})
	}

	// descend into the larger volume first
	if bLeaf || (!aLeaf && na.volume.Size() >= nb.volume.Size()) {
		l, r := na.left, na.right
		dst = t.cross(l, b, dst)
		return t.cross(r, b, dst)
	}
	l, r := nb.left, nb.right
	dst = t.cross(a, l, dst)
	return t.cross(a, r, dst)
}

// Query returns the identifiers of every leaf overlapping volume.
func (t *Tree[K, V]) Query(volume V) []K {
	if len(t.ids) == 0 {
		return nil
	}
	var out []K
	stack := []int{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !t.nodes[n].volume.Overlaps(volume) {
			continue
		}
		if t.isLeaf(n) {
			out = append(out, t.nodes[n].id)
			continue
		}
		stack = append(stack, t.nodes[n].right, t.nodes[n].left)
	}
	return out
}

// Depth returns the height of the tree; zero when empty.
func (t *Tree[K, V]) Depth() int {
	if len(t.ids) == 0 {
		return 0
	}
	return t.depth(t.root)
}

func (t *Tree[K, V]) depth(n int) int {
	if t.isLeaf(n) {
		return 1
	}
	return 1 + max(t.depth(t.nodes[n].left), t.depth(t.nodes[n].right))
}

// Check verifies the structural, volume and index invariants of the tree.
func (t *Tree[K, V]) Check() error {
	if len(t.ids) == 0 {
		return nil
	}
	if t.nodes[t.root].parent != none {
		return fmt.Errorf("%w: root has parent %d", ErrCorrupt, t.nodes[t.root].parent)
	}

	for i := 1; i < len(t.ids); i++ {
		if t.ids[i-1].id >= t.ids[i].id {
			return fmt.Errorf("%w: index not sorted at %d", ErrCorrupt, i)
		}
	}

	leaves := 0
	stack := []int{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := t.nodes[n]

		if (nd.left == none) != (nd.right == none) {
			return fmt.Errorf("%w: node %d has one child", ErrCorrupt, n)
		}

		if t.isLeaf(n) {
			leaves++
			pos, ok := t.find(nd.id)
			if nd.id == 0 || !ok || t.ids[pos].node != n {
				return fmt.Errorf("%w: leaf %d (id %v) missing from index", ErrCorrupt, n, nd.id)
			}
			continue
		}

		if nd.id != 0 {
			return fmt.Errorf("%w: internal node %d carries id %v", ErrCorrupt, n, nd.id)
		}
		for _, c := range [2]int{nd.left, nd.right} {
			if t.nodes[c].parent != n {
				return fmt.Errorf("%w: node %d does not point back to parent %d", ErrCorrupt, c, n)
			}
		}
		if nd.volume != t.nodes[nd.left].volume.Union(t.nodes[nd.right].volume) {
			return fmt.Errorf("%w: stale volume at node %d", ErrCorrupt, n)
		}
		stack = append(stack, nd.left, nd.right)
	}

	if leaves != len(t.ids) {
		return fmt.Errorf("%w: %d leaves but %d indexed", ErrCorrupt, leaves, len(t.ids))
	}
	return nil
}

func (t *Tree[K, V]) isLeaf(n int) bool { return t.nodes[n].left == none }

// refit recomputes volumes from n up to the root.
func (t *Tree[K, V]) refit(n int) {
	for n != none {
		nd := &t.nodes[n]
		if nd.left != none {
			nd.volume = t.nodes[nd.left].volume.Union(t.nodes[nd.right].volume)
		}
		n = nd.parent
	}
}

func (t *Tree[K, V]) alloc(parent int, volume V, id K) int {
	nd := node[K, V]{parent: parent, left: none, right: none, volume: volume, id: id}
	if n := len(t.free); n > 0 {
		i := t.free[n-1]
		t.free = t.free[:n-1]
		t.nodes[i] = nd
		return i
	}
	t.nodes = append(t.nodes, nd)
	return len(t.nodes) - 1
}

func (t *Tree[K, V]) release(n int) {
	t.nodes[n] = node[K, V]{parent: none, left: none, right: none}
	t.free = append(t.free, n)
}

func (t *Tree[K, V]) reset() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.root = none
}

func (t *Tree[K, V]) find(id K) (int, bool) {
	return slices.BinarySearchFunc(t.ids, id, func(e entry[K], id K) int {
		switch {
		case e.id < id:
			return -1
		case e.id > id:
			return 1
		}
		return 0
	})
}

func (t *Tree[K, V]) index(id K, n int) {
	pos, _ := t.find(id)
	t.ids = slices.Insert(t.ids, pos, entry[K]{id: id, node: n})
}

func (t *Tree[K, V]) reindex(id K, n int) {
	if pos, ok := t.find(id); ok {
		t.ids[pos].node = n
	}
}
