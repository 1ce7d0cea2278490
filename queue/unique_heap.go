package queue

import (
	"cmp"
	"container/heap"
	"context"
	"sync"
)

// Keyed is implemented by anything an AsyncUniqueHeap can store: it must
// expose the admission/priority key.
type Keyed[K cmp.Ordered] interface {
	Key() K
}

// AsyncUniqueHeap is a concurrency-safe, unique-key priority queue ordered
// ascending by key. It is the generalization of the teacher's mutex-guarded
// collections (preconf.FIFOTxSet / preconf.TimedTxSet) into a min-heap with
// a blocking pop, modeled on the sync.Cond wait/broadcast idiom used by
// miner.Payload's ResolveFull.
type AsyncUniqueHeap[K cmp.Ordered, T Keyed[K]] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items innerHeap[K, T]
	seen  map[K]struct{}
}

// New constructs an empty AsyncUniqueHeap.
func New[K cmp.Ordered, T Keyed[K]]() *AsyncUniqueHeap[K, T] {
	h := &AsyncUniqueHeap[K, T]{
		items: innerHeap[K, T]{},
		seen:  make(map[K]struct{}),
	}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Push admits item unless its key is already present, returning true iff
// it was newly admitted. Exactly one waiter (if any) is woken.
func (h *AsyncUniqueHeap[K, T]) Push(item T) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := item.Key()
	if _, dup := h.seen[k]; dup {
		return false
	}
	h.seen[k] = struct{}{}
	heap.Push(&h.items, item)
	h.cond.Signal()
	return true
}

// Pop removes and returns the lowest-keyed item, or the zero value and
// false if the queue is empty.
func (h *AsyncUniqueHeap[K, T]) Pop() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.popLocked()
}

func (h *AsyncUniqueHeap[K, T]) popLocked() (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	item := heap.Pop(&h.items).(T)
	delete(h.seen, item.Key())
	return item, true
}

// PopWait blocks until an item is available (or ctx is cancelled), then
// pops it as Pop would.
func (h *AsyncUniqueHeap[K, T]) PopWait(ctx context.Context) (T, error) {
	h.mu.Lock()
	// A goroutine wakes blocked waiters if the context is cancelled, since
	// sync.Cond has no native context support.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// Taking the lock orders this Broadcast after the waiter's
			// ctx.Err() check, so the wakeup cannot be lost.
			h.mu.Lock()
			h.cond.Broadcast()
			h.mu.Unlock()
		case <-done:
		}
	}()

	for len(h.items) == 0 {
		if err := ctx.Err(); err != nil {
			h.mu.Unlock()
			var zero T
			return zero, err
		}
		h.cond.Wait()
	}
	item, _ := h.popLocked()
	h.mu.Unlock()
	return item, nil
}

// Peek returns the lowest-keyed item without removing it.
func (h *AsyncUniqueHeap[K, T]) Peek() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	return h.items[0], true
}

// Len reports the number of queued items.
func (h *AsyncUniqueHeap[K, T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// IsEmpty reports whether the queue is empty.
func (h *AsyncUniqueHeap[K, T]) IsEmpty() bool {
	return h.Len() == 0
}

// innerHeap implements container/heap.Interface as a min-heap by key.
type innerHeap[K cmp.Ordered, T Keyed[K]] []T

func (h innerHeap[K, T]) Len() int             { return len(h) }
func (h innerHeap[K, T]) Less(i, j int) bool   { return h[i].Key() < h[j].Key() }
func (h innerHeap[K, T]) Swap(i, j int)        { h[i], h[j] = h[j], h[i] }
func (h *innerHeap[K, T]) Push(x interface{}) { *h = append(*h, x.(T)) }
func (h *innerHeap[K, T]) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
