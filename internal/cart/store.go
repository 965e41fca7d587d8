// Package cart holds the in-memory cart state machine of a shopping session.
package cart

import (
	"slices"
	"sync"

	"github.com/nguyentranbao-ct/storefront/internal/models"
)

// Observer receives the snapshot produced by a mutation.
type Observer func(models.Snapshot)

// Store is the single state authority for one cart. Lines keep the order of
// their first add and never repeat a product id; every line quantity is > 0.
//
// Observers are invoked synchronously after each mutation, in mutation order.
// They may read from the store but must not mutate it.
type Store struct {
	// notifyMu serializes mutation+notification so observers see snapshots
	// in the order mutations happened. mu guards the state itself.
	notifyMu sync.Mutex
	mu       sync.RWMutex

	lines     []models.CartLine
	count     int
	observers map[uint64]Observer
	nextID    uint64
	closed    bool
}

func NewStore() *Store {
	return &Store{
		observers: make(map[uint64]Observer),
	}
}

// Add puts one unit of product into the cart. An existing line keeps its
// product snapshot and position; only its quantity grows.
//
// Every mutation returns the resulting snapshot and whether the cart
// changed. Unchanged carts do not notify observers.
func (s *Store) Add(product models.Product) (models.Snapshot, bool) {
	return s.mutate(func() bool {
		if i := s.indexOf(product.ID); i >= 0 {
			s.lines[i].Quantity++
		} else {
			s.lines = append(s.lines, models.CartLine{
				Product:  cloneProduct(product),
				Quantity: 1,
			})
		}
		s.count++
		return true
	})
}

// RemoveOne takes one unit of productID out of the cart, dropping the line
// when its last unit goes. Unknown ids are ignored.
func (s *Store) RemoveOne(productID int) (models.Snapshot, bool) {
	return s.mutate(func() bool {
		i := s.indexOf(productID)
		if i < 0 {
			return false
		}
		if s.lines[i].Quantity > 1 {
			s.lines[i].Quantity--
		} else {
			s.lines = slices.Delete(s.lines, i, i+1)
		}
		s.count--
		return true
	})
}

// DeleteLine removes every unit of productID. Unknown ids are ignored.
func (s *Store) DeleteLine(productID int) (models.Snapshot, bool) {
	return s.mutate(func() bool {
		i := s.indexOf(productID)
		if i < 0 {
			return false
		}
		s.count -= s.lines[i].Quantity
		s.lines = slices.Delete(s.lines, i, i+1)
		return true
	})
}

func (s *Store) Clear() (models.Snapshot, bool) {
	return s.mutate(func() bool {
		if len(s.lines) == 0 {
			return false
		}
		s.lines = nil
		s.count = 0
		return true
	})
}

// Restore replaces the cart content with previously persisted lines.
// Duplicate ids are merged into the first occurrence and lines with a
// non-positive quantity are dropped. Observers are not notified.
func (s *Store) Restore(lines []models.CartLine) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.lines = s.lines[:0]
	s.count = 0
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if i := s.indexOf(line.Product.ID); i >= 0 {
			s.lines[i].Quantity += line.Quantity
		} else {
			s.lines = append(s.lines, models.CartLine{
				Product:  cloneProduct(line.Product),
				Quantity: line.Quantity,
			})
		}
		s.count += line.Quantity
	}
}

func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Count is the total number of units in the cart.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Len is the number of distinct lines.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// Subscribe registers fn for every future mutation. The returned function
// removes it and is safe to call more than once.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Observers is the number of registered observers.
func (s *Store) Observers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Close disposes the store. Observers are dropped and every later
// operation becomes a no-op returning the last snapshot.
func (s *Store) Close() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.observers)
}

func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) mutate(apply func() bool) (models.Snapshot, bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, false
	}
	changed := apply()
	snap := s.snapshotLocked()
	var observers []Observer
	if changed {
		observers = make([]Observer, 0, len(s.observers))
		for _, fn := range s.observers {
			observers = append(observers, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
	return snap, changed
}

func (s *Store) indexOf(productID int) int {
	return slices.IndexFunc(s.lines, func(l models.CartLine) bool {
		return l.Product.ID == productID
	})
}

func (s *Store) snapshotLocked() models.Snapshot {
	lines := make([]models.CartLine, len(s.lines))
	for i, l := range s.lines {
		lines[i] = models.CartLine{Product: cloneProduct(l.Product), Quantity: l.Quantity}
	}
	return models.Snapshot{Lines: lines, Count: s.count}
}

func cloneProduct(p models.Product) models.Product {
	p.Images = slices.Clone(p.Images)
	return p
}
