package session

import "sync"

// Listener receives session transitions.
type Listener func(Session)

// Store is the authoritative in-memory session. Current is the pull view;
// Subscribe is the push view. Both read the same backing value.
//
// Only Coordinator writes to a Store. Listeners run synchronously inside
// a commit and must not commit or subscribe from that goroutine.
type Store struct {
	commitMu sync.Mutex // serializes commits and replays

	mu      sync.RWMutex
	current Session
	subs    map[uint64]Listener
	order   []uint64
	nextID  uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[uint64]Listener)}
}

// Current returns the present session snapshot.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers l, immediately replays the current session to it and
// then delivers every later transition in commit order. The returned func
// removes the subscription and is safe to call more than once.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = l
	s.order = append(s.order, id)
	current := s.current
	s.mu.Unlock()

	l(current)

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Store) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return
	}
	delete(s.subs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// commit replaces the session and notifies subscribers.
func (s *Store) commit(next Session) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	s.publish(next)
}

// publish sets the backing value, then notifies subscribers in
// subscription order. Callers hold commitMu.
func (s *Store) publish(next Session) {
	s.mu.Lock()
	s.current = next
	listeners := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.subs[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
}
