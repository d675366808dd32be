package silo

import "sync"

type waiter struct {
	siloID string
	ch     chan struct{}
}

// Scheduler owns the process-wide indexing token of spec §4.G: at most one
// silo may hold it at a time, and both reconciliation and watcher draining
// must acquire it first. Grounded on spec §9's explicit message-passing
// design note for the watcher/scheduler cycle: callers request a slot and
// are granted one via a channel, rather than the scheduler reaching back
// into the watcher directly.
type Scheduler struct {
	mu      sync.Mutex
	holder  string // silo ID currently holding the token, "" if free
	waiters []waiter
}

// NewScheduler returns a free Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Acquire does not block: it returns a channel that receives once siloID
// holds the token. The caller must call Release to hand it back.
// A silo already holding the token may re-acquire (no-op) so reconcile and
// drain can compose within the same holder without deadlocking on itself.
func (s *Scheduler) Acquire(siloID string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	granted := make(chan struct{}, 1)
	if s.holder == "" || s.holder == siloID {
		s.holder = siloID
		granted <- struct{}{}
		return granted
	}
	s.waiters = append(s.waiters, waiter{siloID: siloID, ch: granted})
	return granted
}

// Release hands the token back. If other silos are waiting, the oldest
// waiter is granted next.
func (s *Scheduler) Release(siloID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.holder != siloID {
		return
	}
	if len(s.waiters) == 0 {
		s.holder = ""
		return
	}
	next := s.waiters[0]
	s.waiters = s.waiters[1:]
	s.holder = next.siloID
	next.ch <- struct{}{}
}

// Holder reports which silo ID currently holds the token, "" if free.
func (s *Scheduler) Holder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holder
}

// Pending reports how many silos are waiting for the token.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}
