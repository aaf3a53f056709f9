// Package poll holds the market-status state machine that decides whether
// the live-refresh timer runs.
package poll

import "time"

// Default intervals.
const (
	StatusInterval  = 60 * time.Second
	RefreshInterval = 15 * time.Second
)

// State is the last observed market status.
type State int

const (
	Unknown State = iota
	Closed
	Open
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	default:
		return "--"
	}
}

// Action tells the caller what to do with the refresh timer.
type Action int

const (
	None Action = iota
	StartRefresh
	StopRefresh
)

// Controller is a value type; every transition returns a new Controller.
// Gen identifies the running refresh timer so ticks scheduled by a stopped
// timer can be recognised and dropped.
type Controller struct {
	State   State
	Running bool
	Gen     uint64
}

// Observe applies a successful status poll. Starting is idempotent: an
// open result while the timer runs is a no-op.
func (c Controller) Observe(open bool) (Controller, Action) {
	if open {
		c.State = Open
		if c.Running {
			return c, None
		}
		c.Running = true
		c.Gen++
		return c, StartRefresh
	}

	c.State = Closed
	if !c.Running {
		return c, None
	}
	c.Running = false
	return c, StopRefresh
}

// Live reports whether a refresh tick carrying gen belongs to the running
// timer.
func (c Controller) Live(gen uint64) bool {
	return c.Running && gen == c.Gen
}
