// Package stats collects the tick counters the scheduler reads: how
// long the machine has been up, and how much of that was spent in
// user mode.
package stats

import (
	"fmt"
	"io"
)

// Tick costs, in the simulated time unit.
const (
	UserTick   int64 = 1  // one user-mode instruction
	SystemTick int64 = 10 // interrupts disabled, kernel code
	IdleTick   int64 = 10 // nothing to run
)

type Stats struct {
	TotalTicks  int64
	UserTicks   int64
	SystemTicks int64
	IdleTicks   int64
}

func MkStats() *Stats {
	return &Stats{}
}

func (s *Stats) AdvanceUser(ticks int64) {
	s.UserTicks += ticks
	s.TotalTicks += ticks
}

func (s *Stats) AdvanceSystem(ticks int64) {
	s.SystemTicks += ticks
	s.TotalTicks += ticks
}

func (s *Stats) AdvanceIdle(ticks int64) {
	s.IdleTicks += ticks
	s.TotalTicks += ticks
}

func (s *Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "Ticks: total %d, idle %d, system %d, user %d\n",
		s.TotalTicks, s.IdleTicks, s.SystemTicks, s.UserTicks)
}
