package book

import "fmt"

// Store owns the canonical record for every live order. The ledger
// trees hold the same *Order values threaded through level queues;
// the store is the id index and the single authority on liveness.
// Orders leave the store when terminal (filled or canceled) and are
// never mutated afterwards.
type Store struct {
	orders map[uint64]*Order
}

func NewStore() *Store {
	return &Store{orders: make(map[uint64]*Order, 1024)}
}

func (s *Store) Len() int {
	return len(s.orders)
}

func (s *Store) Get(id uint64) (*Order, bool) {
	o, ok := s.orders[id]
	return o, ok
}

// Insert registers a live order. The id must not be in use.
func (s *Store) Insert(o *Order) error {
	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateOrder, o.ID)
	}
	s.orders[o.ID] = o
	return nil
}

// Remove takes an order out of the store, returning it for ledger
// cleanup.
func (s *Store) Remove(id uint64) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrder, id)
	}
	delete(s.orders, id)
	return o, nil
}

// ForEach visits live orders in unspecified order.
func (s *Store) ForEach(fn func(*Order)) {
	for _, o := range s.orders {
		fn(o)
	}
}
