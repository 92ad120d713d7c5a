package pbd_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physim/internal/force"
	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/particle"
	"github.com/san-kum/physim/internal/pbd"
)

const dt = 1.0 / 60

func step(w *pbd.World, frames int) {
	GinkgoHelper()
	for range frames {
		w.PrepareFrame()
		Expect(w.RunPhysics(dt)).To(Succeed())
	}
}

var _ = Describe("World", func() {
	var (
		store   *particle.Store
		world   *pbd.World
		gravity *force.Gravity
	)

	BeforeEach(func() {
		store = particle.NewStore(16)
		world = pbd.NewWorld(store)
		gravity = force.NewGravity(linalg.Vec3{0, -9.8, 0})
	})

	add := func(pos linalg.Vec3, mass, radius float64) particle.Handle {
		p, err := particle.New(pos, mass)
		Expect(err).NotTo(HaveOccurred())
		p.Radius = radius
		h := store.Add(p)
		world.AddParticle(h)
		if p.HasFiniteMass() {
			world.Forces().Add(h, gravity)
		}
		return h
	}

	Describe("a hanging rope", func() {
		var links []particle.Handle

		BeforeEach(func() {
			links = []particle.Handle{add(linalg.Zero, math.Inf(1), 0)}
			for i := 1; i <= 6; i++ {
				links = append(links, add(linalg.Vec3{0.5 * float64(i), 0, 0}, 1, 0))
				world.AddFixed(pbd.NewDistance(links[i-1], links[i], 0.5, 1))
			}
			world.SetIterations(8)
		})

		It("keeps the anchor in place", func() {
			step(world, 180)
			Expect(store.At(links[0]).Pos).To(Equal(linalg.Zero))
		})

		It("keeps every link close to its rest length", func() {
			step(world, 180)
			for i := 1; i < len(links); i++ {
				d := store.At(links[i]).Pos.Sub(store.At(links[i-1]).Pos).Len()
				Expect(d).To(BeNumerically("~", 0.5, 0.05))
			}
		})

		It("swings below the anchor", func() {
			step(world, 180)
			Expect(store.At(links[len(links)-1]).Pos[1]).To(BeNumerically("<", -0.5))
		})
	})

	Describe("a pile of particles on a floor", func() {
		BeforeEach(func() {
			rng := rand.New(rand.NewSource(GinkgoRandomSeed()))
			for i := range 12 {
				x := float64(i%4)*0.9 + rng.Float64()*0.05
				y := float64(i/4)*1.1 + 0.5
				add(linalg.Vec3{x, y, 0}, 1, 0.5)
			}
			world.AddGenerator(pbd.NewPlaneGenerator(linalg.Zero, linalg.Up, 1))
			world.AddGenerator(pbd.NewCollisionGenerator(1))
			world.SetIterations(10)
		})

		It("stays above the floor and stays finite", func() {
			step(world, 240)
			for _, h := range world.Particles() {
				p := store.At(h)
				Expect(linalg.IsFiniteVec(p.Pos)).To(BeTrue())
				Expect(p.Pos[1]).To(BeNumerically(">=", 0.5-0.05))
			}
		})

		It("ends up resting on the floor", func() {
			step(world, 600)
			for _, h := range world.Particles() {
				p := store.At(h)
				Expect(p.Pos[1]).To(BeNumerically("~", 0.5, 1e-6))
				Expect(p.Vel[1]).To(BeNumerically("~", 0, 1e-6))
			}
		})
	})

	It("is a no-op for a zero step", func() {
		h := add(linalg.Vec3{0, 2, 0}, 1, 0)
		world.PrepareFrame()
		Expect(world.RunPhysics(0)).To(Succeed())
		Expect(store.At(h).Pos).To(Equal(linalg.Vec3{0, 2, 0}))
	})
})
