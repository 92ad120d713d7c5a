package bvh_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physim/internal/bvh"
	"github.com/san-kum/physim/internal/linalg"
)

func randomBox(rng *rand.Rand) bvh.AABB {
	c := linalg.Vec3{rng.Float64() * 20, rng.Float64() * 20, rng.Float64() * 20}
	return bvh.NewAABB(c, 0.5+rng.Float64()*2)
}

func bruteForcePairs(live map[uint32]bvh.AABB) map[bvh.Pair[uint32]]bool {
	out := make(map[bvh.Pair[uint32]]bool)
	for a, va := range live {
		for b, vb := range live {
			if a < b && va.Overlaps(vb) {
				out[bvh.Pair[uint32]{A: a, B: b}] = true
			}
		}
	}
	return out
}

func normalized(pairs []bvh.Pair[uint32]) map[bvh.Pair[uint32]]bool {
	out := make(map[bvh.Pair[uint32]]bool, len(pairs))
	for _, p := range pairs {
		if p.A > p.B {
			p.A, p.B = p.B, p.A
		}
		Expect(out).NotTo(HaveKey(p), "pair reported twice")
		out[p] = true
	}
	return out
}

var _ = Describe("Tree", func() {
	var (
		tree *bvh.Tree[uint32, bvh.AABB]
		live map[uint32]bvh.AABB
		rng  *rand.Rand
	)

	BeforeEach(func() {
		tree = bvh.New[uint32, bvh.AABB]()
		live = make(map[uint32]bvh.AABB)
		rng = rand.New(rand.NewSource(GinkgoRandomSeed()))
	})

	expectConsistent := func() {
		GinkgoHelper()
		Expect(tree.Check()).To(Succeed())
		Expect(tree.Size()).To(Equal(len(live)))
		for id, v := range live {
			Expect(tree.Has(id)).To(BeTrue())
			got, ok := tree.Volume(id)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(v))
		}
	}

	Context("under random insert, remove and update", func() {
		It("keeps its invariants after every operation", func() {
			for range 500 {
				id := uint32(rng.Intn(64) + 1)
				switch rng.Intn(3) {
				case 0:
					v := randomBox(rng)
					_, exists := live[id]
					Expect(tree.Insert(id, v)).To(Equal(!exists))
					if !exists {
						live[id] = v
					}
				case 1:
					_, exists := live[id]
					Expect(tree.Remove(id)).To(Equal(exists))
					delete(live, id)
				case 2:
					v := randomBox(rng)
					_, exists := live[id]
					Expect(tree.Update(id, v)).To(Equal(exists))
					if exists {
						live[id] = v
					}
				}
				expectConsistent()
			}
		})

		It("reports exactly the overlapping pairs", func() {
			for i := uint32(1); i <= 80; i++ {
				v := randomBox(rng)
				tree.Insert(i, v)
				live[i] = v
			}
			for i := uint32(1); i <= 80; i += 3 {
				tree.Remove(i)
				delete(live, i)
			}
			for i := uint32(2); i <= 80; i += 5 {
				if _, ok := live[i]; ok {
					v := randomBox(rng)
					tree.Update(i, v)
					live[i] = v
				}
			}

			expectConsistent()
			Expect(normalized(tree.Pairs())).To(Equal(bruteForcePairs(live)))
		})
	})

	Context("when emptied", func() {
		It("behaves like a fresh tree", func() {
			for i := uint32(1); i <= 10; i++ {
				tree.Insert(i, randomBox(rng))
			}
			tree.Clear()
			Expect(tree.Size()).To(BeZero())
			Expect(tree.Pairs()).To(BeEmpty())
			Expect(tree.Query(randomBox(rng))).To(BeEmpty())

			Expect(tree.Insert(3, randomBox(rng))).To(BeTrue())
			Expect(tree.Check()).To(Succeed())
		})
	})

	Context("with sphere volumes", func() {
		It("builds a consistent tree", func() {
			spheres := bvh.New[uint32, bvh.Sphere]()
			for i := uint32(1); i <= 40; i++ {
				c := linalg.Vec3{rng.Float64() * 10, rng.Float64() * 10, 0}
				spheres.Insert(i, bvh.NewSphere(c, 0.2+rng.Float64()))
			}
			Expect(spheres.Check()).To(Succeed())
			Expect(spheres.Depth()).To(BeNumerically("<=", 40))
			Expect(spheres.IDs()).To(HaveLen(40))
		})
	})
})
