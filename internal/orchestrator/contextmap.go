package orchestrator

import (
	"sync"

	"travelagency.app/bot/internal/model"
)

// contextMap is the shared, write-once, concurrently-read store of completed
// subtask outputs keyed by taskId. Inserts broadcast to every waiter blocked
// on a dependency set, replacing the fixed-interval busy-poll the dependency
// wait used in the source with a signal the scheduler and every worker share.
type contextMap struct {
	mu   sync.Mutex
	cond *sync.Cond
	data map[string]model.Context
}

func newContextMap() *contextMap {
	cm := &contextMap{data: make(map[string]model.Context)}
	cm.cond = sync.NewCond(&cm.mu)
	return cm
}

// Insert records a subtask's Context exactly once and wakes every waiter.
func (cm *contextMap) Insert(c model.Context) {
	cm.mu.Lock()
	cm.data[c.TaskID] = c
	cm.mu.Unlock()
	cm.cond.Broadcast()
}

// Snapshot returns a shallow copy of the current membership.
func (cm *contextMap) Snapshot() map[string]model.Context {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	out := make(map[string]model.Context, len(cm.data))
	for k, v := range cm.data {
		out[k] = v
	}
	return out
}

// WaitFor blocks until every id in deps is present in the map, or done
// fires (plan deadline exceeded / worker cancelled). Returns false on the
// latter.
func (cm *contextMap) WaitFor(deps []string, done <-chan struct{}) (map[string]model.Context, bool) {
	if len(deps) == 0 {
		return nil, true
	}

	// A goroutine that closes an internal channel when done fires lets the
	// blocking Cond.Wait loop below be interrupted by cancellation without
	// needing a separate polling goroutine per waiter.
	interrupted := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-done:
			// Close before broadcasting, and broadcast under the lock, so a
			// waiter either sees interrupted closed or is already in Wait.
			close(interrupted)
			cm.mu.Lock()
			cm.cond.Broadcast()
			cm.mu.Unlock()
		case <-stop:
		}
	}()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for {
		if ready, satisfied := cm.satisfiedLocked(deps); satisfied {
			return ready, true
		}
		select {
		case <-interrupted:
			return nil, false
		default:
		}
		cm.cond.Wait()
	}
}

func (cm *contextMap) satisfiedLocked(deps []string) (map[string]model.Context, bool) {
	ready := make(map[string]model.Context, len(deps))
	for _, d := range deps {
		c, ok := cm.data[d]
		if !ok {
			return nil, false
		}
		ready[d] = c
	}
	return ready, true
}
