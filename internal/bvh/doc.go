// Package bvh provides a bounding volume hierarchy used as the broad phase
// of collision detection.
//
// [Tree] is a binary tree over an opaque bounding volume type. Every node
// has zero or two children; leaves carry a caller-supplied identifier and
// internal nodes carry the zero identifier. Nodes live in an index arena,
// and a side index sorted by identifier gives O(log n) lookup.
//
//   - [Tree.Insert]: greedy descent by smallest volume growth, then leaf split
//   - [Tree.Remove]: sibling is spliced into the parent's place
//   - [Tree.Update]: remove then insert
//   - [Tree.Pairs]: every overlapping pair of leaves, each reported once
//
// Two volumes are provided, [Sphere] and [AABB].
//
// # Example
//
//	var tree bvh.Tree[uint32, bvh.Sphere]
//	tree.Insert(1, bvh.NewSphere(a, 1))
//	tree.Insert(2, bvh.NewSphere(b, 1))
//	for _, p := range tree.Pairs() {
//	    // narrow phase on p.A, p.B
//	}
//
// # Thread Safety
//
// Trees are NOT safe for concurrent use.
package bvh
