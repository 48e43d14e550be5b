// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery: 10, // sample logs: ~every 10th self-heal
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	store, _ := sqlitestore.Open(sqlitestore.Options{
//	    Path:  "/var/cache/app/cache.db",
//	    Hooks: hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/spillcache"
)

// Hooks forwards events to inner on its own goroutines. Events are dropped
// when the queue is full, so a slow sink cannot stall the durable worker.
type Hooks struct {
	inner spillcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	// mu guards closed; senders hold it shared so Close never closes q under them.
	mu     sync.RWMutex
	closed bool
}

var _ spillcache.Hooks = (*Hooks)(nil)

func New(inner spillcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close delivers the queued events and stops the workers. Events fired after
// Close are dropped, so stores using these hooks may outlive them.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) WorkerFault(op string, err error) { h.try(func() { h.inner.WorkerFault(op, err) }) }
func (h *Hooks) SelfHeal(k, r string)             { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)     { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) StoreClosed(op string)            { h.try(func() { h.inner.StoreClosed(op) }) }
