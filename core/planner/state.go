package planner

import (
	"sync"
	"time"
)

// State is the in-memory planner state. Every mutation runs under the write lock and
// every read hands out deep copies.
type State struct {
	mu   sync.RWMutex
	data Snapshot

	online   bool
	loading  bool
	lastSync time.Time
}

func NewState() *State {
	st := &State{}
	st.data.normalize()
	return st
}

// Snapshot returns a deep copy of the whole state.
func (st *State) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.data.Clone()
}

// Replace swaps the whole state for a copy of snap.
func (st *State) Replace(snap Snapshot) {
	snap = snap.Clone()
	snap.normalize()
	st.mu.Lock()
	st.data = snap
	st.mu.Unlock()
}

// update runs fn on the live data under the write lock.
func (st *State) update(fn func(s *Snapshot) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return fn(&st.data)
}

// view runs fn on the live data under the read lock; fn must not retain references.
func (st *State) view(fn func(s *Snapshot)) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	fn(&st.data)
}

func (st *State) Online() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.online
}

func (st *State) setOnline(online bool) {
	st.mu.Lock()
	st.online = online
	if online {
		st.lastSync = NowFunc().UTC()
	}
	st.mu.Unlock()
}

func (st *State) Loading() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loading
}

func (st *State) setLoading(loading bool) {
	st.mu.Lock()
	st.loading = loading
	st.mu.Unlock()
}

func (st *State) LastSync() time.Time {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.lastSync
}
