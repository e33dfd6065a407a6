package resource

import "sync"

// Store holds the collection the operator sees, along with the loading flag and the last load error.
//
// Loads are stamped with a generation: a response is applied only when no newer
// load has been applied before it, so a slow response never overwrites a fresher one.
type Store struct {
	mu       sync.Mutex
	items    Collection
	err      error
	inflight int
	issued   uint64
	applied  uint64
}

// StoreSnapshot is a consistent read of a Store.
type StoreSnapshot struct {
	Items   Collection
	Err     error
	Loading bool
}

func NewStore() *Store {
	return &Store{}
}

// Begin marks a load as in flight and returns its generation.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.inflight++
	return s.issued
}

// Commit settles the load of generation gen.
// On error the previous collection is kept and err is recorded.
// It reports whether the result was applied.
func (s *Store) Commit(gen uint64, items Collection, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight > 0 {
		s.inflight--
	}
	if gen < s.applied {
		return false
	}
	s.applied = gen

	if err != nil {
		s.err = err
		return true
	}
	s.items = items
	s.err = nil
	return true
}

func (s *Store) Snapshot() StoreSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreSnapshot{Items: s.items, Err: s.err, Loading: s.inflight > 0}
}

// Items returns the current collection. It must not be modified.
func (s *Store) Items() Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Loading reports whether at least one load is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Err returns the error of the last applied load.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// modify replaces the entity identified by id with the result of fn, copy-on-write,
// so collections handed out earlier are never mutated.
func (s *Store) modify(idField, id string, fn func(e Entity) (Entity, error)) (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.items.IndexOf(idField, id)
	if idx < 0 {
		return nil, ErrEntityNotFound
	}
	prev := s.items[idx].Clone()
	next, err := fn(s.items[idx].Clone())
	if err != nil {
		return nil, err
	}

	items := make(Collection, len(s.items))
	copy(items, s.items)
	items[idx] = next
	s.items = items
	return prev, nil
}
