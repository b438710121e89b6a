package application

import (
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAlreadyArmed = errors.New("timer already armed")
	// ErrRetired is returned for an ID that was cancelled or has fired and
	// may still show up in a pending snapshot.
	ErrRetired = errors.New("timer retired")
)

// CancelOutcome is what Cancel found for an ID.
type CancelOutcome int

const (
	// CancelIdle means nothing was armed or running for the ID.
	CancelIdle CancelOutcome = iota
	// CancelStopped means a pending countdown was stopped.
	CancelStopped
	// CancelFiring means the action already claimed the ID and is running.
	CancelFiring
)

// TimerRegistry holds the live countdowns of pending reminders, one per
// reminder ID. A fired timer atomically moves its ID from armed to firing
// before running, so exactly one of fire and Cancel wins for an ID.
//
// Cancelled and fired IDs are retired: Arm refuses them until Forget is
// called after the row is gone and no sweep that began earlier is running.
type TimerRegistry struct {
	mu      sync.Mutex
	armed   map[primitive.ObjectID]*time.Timer
	firing  map[primitive.ObjectID]struct{}
	retired map[primitive.ObjectID]bool // true once forgotten during a sweep
	sweeps  int
	wg      sync.WaitGroup
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{
		armed:   make(map[primitive.ObjectID]*time.Timer),
		firing:  make(map[primitive.ObjectID]struct{}),
		retired: make(map[primitive.ObjectID]bool),
	}
}

// Arm starts a countdown that runs action after delay. It fails with
// ErrAlreadyArmed while the ID is armed or its action is still running, and
// with ErrRetired once the ID was cancelled or fired.
func (r *TimerRegistry) Arm(id primitive.ObjectID, delay time.Duration, action func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.liveLocked(id) {
		return ErrAlreadyArmed
	}
	if _, ok := r.retired[id]; ok {
		return ErrRetired
	}
	r.armed[id] = time.AfterFunc(delay, func() {
		if !r.claim(id) {
			return
		}
		defer r.release(id)
		action()
	})
	armedTimers.Inc()
	return nil
}

// Cancel retires id and stops its countdown if one is pending.
func (r *TimerRegistry) Cancel(id primitive.ObjectID) CancelOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retired[id] = false
	if _, ok := r.firing[id]; ok {
		return CancelFiring
	}
	t, ok := r.armed[id]
	if !ok {
		return CancelIdle
	}
	t.Stop()
	delete(r.armed, id)
	armedTimers.Dec()
	return CancelStopped
}

// Forget drops the retirement of id. Call it once the row is deleted.
func (r *TimerRegistry) Forget(id primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.retired[id]; !ok {
		return
	}
	if r.sweeps > 0 {
		r.retired[id] = true
		return
	}
	delete(r.retired, id)
}

// BeginSweep marks a pending-row snapshot as in use. Retirements forgotten
// while any sweep runs are kept until the last one ends.
func (r *TimerRegistry) BeginSweep() (end func()) {
	r.mu.Lock()
	r.sweeps++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.sweeps--
			if r.sweeps > 0 {
				return
			}
			for id, forgotten := range r.retired {
				if forgotten {
					delete(r.retired, id)
				}
			}
		})
	}
}

// Armed reports whether id has a countdown or a running action.
func (r *TimerRegistry) Armed(id primitive.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveLocked(id)
}

func (r *TimerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.armed)
}

// Clear stops every countdown. Actions already running are not interrupted;
// use Wait to let them finish.
func (r *TimerRegistry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.armed)
	for id, t := range r.armed {
		t.Stop()
		delete(r.armed, id)
	}
	armedTimers.Sub(float64(n))
	return n
}

// Wait blocks until running actions return. Call it after Clear.
func (r *TimerRegistry) Wait() {
	r.wg.Wait()
}

func (r *TimerRegistry) liveLocked(id primitive.ObjectID) bool {
	if _, ok := r.armed[id]; ok {
		return true
	}
	_, ok := r.firing[id]
	return ok
}

func (r *TimerRegistry) claim(id primitive.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.armed[id]; !ok {
		return false
	}
	delete(r.armed, id)
	armedTimers.Dec()
	r.firing[id] = struct{}{}
	r.retired[id] = false
	r.wg.Add(1)
	return true
}

func (r *TimerRegistry) release(id primitive.ObjectID) {
	r.mu.Lock()
	delete(r.firing, id)
	r.mu.Unlock()
	r.wg.Done()
}

// scheduledElsewhere reports an Arm failure that means the ID is already
// taken care of by another countdown.
func scheduledElsewhere(err error) bool {
	return errors.Is(err, ErrAlreadyArmed) || errors.Is(err, ErrRetired)
}
