package body

// Handle addresses a body inside a Store.
type Handle int

// None marks a missing body, for example the far side of a one-sided contact.
const None Handle = -1

// Store is caller-owned contiguous body storage addressed by Handle.
type Store struct {
	items []RigidBody
}

func NewStore(capacity int) *Store {
	return &Store{items: make([]RigidBody, 0, capacity)}
}

// Add stores b and returns its handle. Derived data is refreshed so a zero
// value body gets a valid transform.
func (s *Store) Add(b RigidBody) Handle {
	b.CalculateDerivedData()
	s.items = append(s.items, b)
	return Handle(len(s.items) - 1)
}

// At returns the body for h. The pointer is valid until the next Add.
func (s *Store) At(h Handle) *RigidBody {
	return &s.items[h]
}

func (s *Store) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(s.items)
}

func (s *Store) Len() int { return len(s.items) }
