package reconcile

import "github.com/dalessandro07/bancopoly/internal/model"

// seenSet remembers recently observed transaction ids so duplicate bus
// deliveries are dropped. It is a fixed-capacity ring: when full, the
// oldest id is evicted. The bus offers no idempotency guarantee of its
// own, so each reconciler owns one of these.
type seenSet struct {
	capacity int
	ids      map[model.TransactionID]struct{}
	order    []model.TransactionID
	next     int
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		capacity: capacity,
		ids:      make(map[model.TransactionID]struct{}, capacity),
		order:    make([]model.TransactionID, capacity),
	}
}

// Has reports whether the id is currently remembered.
func (s *seenSet) Has(id model.TransactionID) bool {
	_, ok := s.ids[id]
	return ok
}

// Add remembers an id, evicting the oldest remembered id when full.
func (s *seenSet) Add(id model.TransactionID) {
	if s.Has(id) {
		return
	}
	if evicted := s.order[s.next]; evicted != "" {
		delete(s.ids, evicted)
	}
	s.order[s.next] = id
	s.ids[id] = struct{}{}
	s.next = (s.next + 1) % s.capacity
}

// Len returns the number of remembered ids.
func (s *seenSet) Len() int {
	return len(s.ids)
}
