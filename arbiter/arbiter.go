// SPDX-License-Identifier: EPL-2.0

// Package arbiter hands out playback buffer pools. There is one small fast
// pool that only a single stream may hold, and a general pool that any
// number of streams can draw from.
package arbiter

import (
	"fmt"
	"sync"
)

// Pool identifies where a stream's buffer lives.
type Pool int

const (
	PoolNone Pool = iota
	PoolFast
	PoolGeneral
)

func (p Pool) String() string {
	switch p {
	case PoolNone:
		return "none"
	case PoolFast:
		return "fast"
	case PoolGeneral:
		return "general"
	}
	return fmt.Sprintf("Pool(%d)", int(p))
}

// State is the arbiter's summary of who holds what.
type State int

const (
	StateFree State = iota
	StateFastInUse
	StateGeneralInUse
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateFastInUse:
		return "fast_in_use"
	case StateGeneralInUse:
		return "general_in_use"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Grant is the result of Acquire. Pass it back to Release unchanged.
type Grant struct {
	ID       uint64
	Pool     Pool
	Capacity int
}

// Arbiter tracks pool grants. The zero value is not usable; call New.
type Arbiter struct {
	mu sync.Mutex

	fastSize   int
	generalMax int

	nextID  uint64
	fastID  uint64 // 0 when the fast pool is free
	general map[uint64]struct{}
}

// New returns an arbiter for a fast pool of fastSize bytes and general
// grants of up to generalMax bytes.
func New(fastSize, generalMax int) *Arbiter {
	return &Arbiter{
		fastSize:   fastSize,
		generalMax: generalMax,
		general:    make(map[uint64]struct{}),
	}
}

// Acquire never fails. The fast pool goes to the first caller while it is
// free, everyone else gets the general pool.
func (a *Arbiter) Acquire() Grant {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	id := a.nextID

	if a.fastID == 0 && a.fastSize > 0 {
		a.fastID = id
		return Grant{ID: id, Pool: PoolFast, Capacity: a.fastSize}
	}

	a.general[id] = struct{}{}
	return Grant{ID: id, Pool: PoolGeneral, Capacity: a.generalMax}
}

// Release returns g to the arbiter. Releasing a grant that is not held is
// a no-op, so a double release cannot free someone else's pool.
func (a *Arbiter) Release(g Grant) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch g.Pool {
	case PoolFast:
		if a.fastID == g.ID {
			a.fastID = 0
		}
	case PoolGeneral:
		delete(a.general, g.ID)
	}
}

// State reports FastInUse while the fast pool is held, GeneralInUse while
// only general grants are out, and Free otherwise.
func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.fastID != 0:
		return StateFastInUse
	case len(a.general) > 0:
		return StateGeneralInUse
	}
	return StateFree
}

// FastHeld reports whether the fast pool is granted.
func (a *Arbiter) FastHeld() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.fastID != 0
}

// GeneralHolders is the number of outstanding general grants.
func (a *Arbiter) GeneralHolders() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.general)
}
