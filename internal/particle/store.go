package particle

// Handle addresses a particle inside a Store. Handles stay valid while the
// store grows; pointers returned by At do not.
type Handle int

// Store is caller-owned contiguous particle storage. Worlds keep handles into
// it instead of pointers.
type Store struct {
	items []Particle
}

func NewStore(capacity int) *Store {
	return &Store{items: make([]Particle, 0, capacity)}
}

func (s *Store) Add(p Particle) Handle {
	s.items = append(s.items, p)
	return Handle(len(s.items) - 1)
}

// At returns the particle for h. The pointer is valid until the next Add.
func (s *Store) At(h Handle) *Particle {
	return &s.items[h]
}

func (s *Store) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(s.items)
}

func (s *Store) Len() int { return len(s.items) }

// Handles lists every handle in insertion order.
func (s *Store) Handles() []Handle {
	hs := make([]Handle, len(s.items))
	for i := range hs {
		hs[i] = Handle(i)
	}
	return hs
}
