package rpcserver

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
)

// trackedFilter is the bookkeeping this package keeps for one eth filter:
// just enough to know when it has gone stale. The filter's actual
// criteria/state live in the external eth filter implementation this
// package delegates to (spec §4.4's "Filters" section); FilterSet only
// owns the TTL half of the contract.
type trackedFilter struct {
	lastActivity time.Time
}

// FilterSet is the active-filters map shared jointly by the RPC handlers
// (which Touch a filter on every poll) and the sweep task (which Evicts
// stale ones), matching spec §5's "Active-filters map is behind a mutex
// owned jointly by the RPC handlers and the sweep task."
type FilterSet struct {
	mu      sync.Mutex
	filters map[string]*trackedFilter
}

// NewFilterSet builds an empty, ready-to-use filter set.
func NewFilterSet() *FilterSet {
	return &FilterSet{filters: make(map[string]*trackedFilter)}
}

// Register allocates a new filter id and marks it active as of now.
func (f *FilterSet) Register() string {
	id := uuid.NewString()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters[id] = &trackedFilter{lastActivity: time.Now()}
	return id
}

// Touch refreshes id's last-activity timestamp, reporting whether it was
// still present (a caller polling an id the sweep already evicted should
// treat that as filter-not-found).
func (f *FilterSet) Touch(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	tf, ok := f.filters[id]
	if !ok {
		return false
	}
	tf.lastActivity = time.Now()
	return true
}

// Remove drops id from the set, e.g. on an explicit eth_uninstallFilter.
func (f *FilterSet) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.filters, id)
}

// sweepOnce evicts every filter whose last activity is older than ttl,
// returning the evicted ids for logging.
func (f *FilterSet) sweepOnce(ttl time.Duration) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var evicted []string
	now := time.Now()
	for id, tf := range f.filters {
		if now.Sub(tf.lastActivity) > ttl {
			delete(f.filters, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// filterSweeper is the background task that wakes every FilterDuration and
// evicts stale filters (spec §4.4). It is cancellation-aware, per spec
// §5's requirement that the sweep task observe the process-wide
// cancellation token.
type filterSweeper struct {
	filters  *FilterSet
	interval time.Duration
}

func newFilterSweeper(filters *FilterSet, interval time.Duration) *filterSweeper {
	return &filterSweeper{filters: filters, interval: interval}
}

func (s *filterSweeper) run(ctx context.Context) {
	if s.filters == nil || s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("filter sweeper stopping")
			return
		case <-ticker.C:
			evicted := s.filters.sweepOnce(s.interval)
			if len(evicted) > 0 {
				log.Debug("filter sweeper evicted stale filters", "count", len(evicted))
			}
		}
	}
}
