package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// errSessionEnding makes an in-flight load give up when the session was
// ended while it ran. Open retries once the end has finished.
var errSessionEnding = errors.New("cart: session is ending")

type entry struct {
	store    *Store
	lastUsed time.Time
}

// Registry owns one Store per shopping session.
//
// The registry lock is never held while a store is loaded: concurrent opens
// of one session share a single load, and opens of other sessions proceed.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*entry
	// ending holds the sessions whose persisted state is being removed. The
	// channel is closed once the removal returned.
	ending map[string]chan struct{}
	loads  singleflight.Group
	now    func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]*entry),
		ending: make(map[string]chan struct{}),
		now:    time.Now,
	}
}

// Open returns the store of sessionID, creating it when missing. init runs
// once on a freshly created store before it becomes visible to other
// callers; if it fails the store is discarded and the error returned.
//
// created is true for every caller that waited on the load of the store.
// ctx bounds only the wait: a load that already started keeps running so
// the other callers joined on it still get the store.
func (r *Registry) Open(ctx context.Context, sessionID string, init func(*Store) error) (store *Store, created bool, err error) {
	for {
		r.mu.Lock()
		if e, ok := r.stores[sessionID]; ok {
			e.lastUsed = r.now()
			r.mu.Unlock()
			return e.store, false, nil
		}
		done, ending := r.ending[sessionID]
		r.mu.Unlock()

		if ending {
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return nil, false, ctx.Err()
			}
		}

		ch := r.loads.DoChan(sessionID, func() (any, error) {
			return r.load(sessionID, init)
		})
		select {
		case res := <-ch:
			if errors.Is(res.Err, errSessionEnding) {
				continue
			}
			if res.Err != nil {
				return nil, false, res.Err
			}
			return res.Val.(*Store), true, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (r *Registry) load(sessionID string, init func(*Store) error) (*Store, error) {
	r.mu.Lock()
	if e, ok := r.stores[sessionID]; ok {
		r.mu.Unlock()
		return e.store, nil
	}
	if _, ok := r.ending[sessionID]; ok {
		r.mu.Unlock()
		return nil, errSessionEnding
	}
	r.mu.Unlock()

	s := NewStore()
	if init != nil {
		if err := init(s); err != nil {
			s.Close()
			return nil, err
		}
	}

	r.mu.Lock()
	if _, ok := r.ending[sessionID]; ok {
		r.mu.Unlock()
		s.Close()
		return nil, errSessionEnding
	}
	r.stores[sessionID] = &entry{store: s, lastUsed: r.now()}
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) Get(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[sessionID]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// End disposes and forgets the store of sessionID, then runs cleanup. Until
// cleanup returns, Open of sessionID blocks, so no caller can observe or
// resurrect the state being removed. End reports whether a store existed.
func (r *Registry) End(sessionID string, cleanup func() error) (existed bool, err error) {
	r.mu.Lock()
	for {
		prev, ok := r.ending[sessionID]
		if !ok {
			break
		}
		r.mu.Unlock()
		<-prev
		r.mu.Lock()
	}
	done := make(chan struct{})
	r.ending[sessionID] = done
	e, existed := r.stores[sessionID]
	delete(r.stores, sessionID)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.ending, sessionID)
		r.mu.Unlock()
		close(done)
	}()

	if existed {
		// waits for a running save of the last mutation
		e.store.Close()
	}
	// a load started before the session was marked sees the mark on insert
	// and discards its store; wait for it so cleanup runs last.
	<-r.loads.DoChan(sessionID, func() (any, error) {
		return nil, errSessionEnding
	})

	if cleanup != nil {
		err = cleanup()
	}
	return existed, err
}

// EvictIdle closes the stores not opened within idle. keep can spare a store,
// for example one still watched by a client. It returns how many stores were
// evicted.
func (r *Registry) EvictIdle(idle time.Duration, keep func(*Store) bool) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var evicted []*Store
	for id, e := range r.stores {
		if e.lastUsed.After(cutoff) || (keep != nil && keep(e.store)) {
			continue
		}
		delete(r.stores, id)
		evicted = append(evicted, e.store)
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	return len(evicted)
}

// CloseAll disposes every store, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range stores {
		e.store.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
