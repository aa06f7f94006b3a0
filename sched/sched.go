// Package sched chooses the next thread to run and dispatches to it.
//
// Every entry point assumes interrupts are already disabled: on a
// uniprocessor that is the mutual exclusion. Locks cannot be used
// here, since waiting on a busy lock would call back into the
// scheduler and loop forever.
//
// The ready population is split into three bands by priority. L1
// [100,149] runs shortest-estimated-burst first and is preemptive; L2
// [50,99] runs highest priority first; L3 [0,49] is FIFO. Long-waiting
// ready threads age upward by 10 priority points every 1500 ticks, so
// nothing starves.
package sched

import (
	"fmt"
	"io"
	"os"

	"github.com/tim70036/OS-Nachos/stats"
	"github.com/tim70036/OS-Nachos/util"
)

// AgingThreshold is how long a ready thread waits before its priority
// is raised by AgingBoost.
const (
	AgingThreshold int64 = 1500
	AgingBoost           = 10
)

type IntLevel int

const (
	IntOff IntLevel = iota
	IntOn
)

// Interrupt is the interrupt-controller collaborator; the scheduler
// only ever asks whether interrupts are off.
type Interrupt interface {
	Level() IntLevel
}

// Switcher is the machine-dependent context switch primitive. Switch
// returns when control is eventually dispatched back to old.
type Switcher interface {
	Switch(old, next *Thread)
}

type Scheduler struct {
	stats     *stats.Stats
	interrupt Interrupt
	machine   Switcher
	out       io.Writer

	current       *Thread
	l1            *burstQueue
	l2            *priorityQueue
	l3            *fifoQueue
	toBeDestroyed *Thread
}

func MkScheduler(st *stats.Stats, intr Interrupt, machine Switcher) *Scheduler {
	return &Scheduler{
		stats:     st,
		interrupt: intr,
		machine:   machine,
		out:       os.Stdout,
		l1:        &burstQueue{},
		l2:        &priorityQueue{},
		l3:        &fifoQueue{},
	}
}

// SetOutput redirects the scheduling trace, which defaults to stdout.
// The line format is a fixed external contract.
func (s *Scheduler) SetOutput(w io.Writer) {
	s.out = w
}

func (s *Scheduler) assertIntOff() {
	if s.interrupt.Level() != IntOff {
		panic("scheduler entered with interrupts enabled")
	}
}

func (s *Scheduler) CurrentThread() *Thread {
	return s.current
}

// SetCurrent installs the initial running thread at boot.
func (s *Scheduler) SetCurrent(t *Thread) {
	t.status = Running
	s.current = t
}

// ReadyToRun marks thread ready and queues it by priority band. A
// thread entering L1 preempts the current thread when its burst
// estimate is strictly shorter than the current thread's estimated
// remainder.
func (s *Scheduler) ReadyToRun(thread *Thread) {
	s.assertIntOff()
	util.DPrintf(2, "Putting thread on ready list: %s", thread.name)

	thread.status = Ready
	now := s.stats.TotalTicks
	b := band(thread.priority)
	fmt.Fprintf(s.out, "Tick %d: Thread %d is inserted into queue L%d\n", now, thread.id, b)
	switch b {
	case 1:
		s.l1.Insert(thread)
	case 2:
		s.l2.Insert(thread)
	default:
		s.l3.Append(thread)
	}

	// Now the thread starts to wait.
	thread.startWaitTime = now

	if b == 1 {
		s.maybePreempt(thread)
	}
}

// maybePreempt yields the current thread when newcomer, just inserted
// into L1, has a strictly shorter burst estimate than the current
// thread's estimated remaining burst.
func (s *Scheduler) maybePreempt(newcomer *Thread) {
	cur := s.current
	if cur == nil || band(cur.priority) != 1 || cur.id == newcomer.id {
		return
	}
	actBurst := float64(s.stats.UserTicks - cur.startTime)
	estBurst := 0.5*actBurst + 0.5*cur.burstEstimate
	if newcomer.burstEstimate < estBurst {
		s.Yield()
	}
}

// Yield relinquishes the CPU: the current thread goes back on the
// ready list and the next thread, if any, is dispatched.
func (s *Scheduler) Yield() {
	s.assertIntOff()
	next := s.FindNextToRun()
	if next != nil {
		s.ReadyToRun(s.current)
		s.Run(next, false)
	}
}

// FindNextToRun dequeues and returns the front of the highest
// non-empty band, or nil when all three are empty.
func (s *Scheduler) FindNextToRun() *Thread {
	s.assertIntOff()
	now := s.stats.TotalTicks
	switch {
	case !s.l1.Empty():
		fmt.Fprintf(s.out, "Tick %d: Thread %d is removed from queue L1\n", now, s.l1.Front().id)
		return s.l1.RemoveFront()
	case !s.l2.Empty():
		fmt.Fprintf(s.out, "Tick %d: Thread %d is removed from queue L2\n", now, s.l2.Front().id)
		return s.l2.RemoveFront()
	case !s.l3.Empty():
		fmt.Fprintf(s.out, "Tick %d: Thread %d is removed from queue L3\n", now, s.l3.Front().id)
		return s.l3.RemoveFront()
	default:
		return nil
	}
}

// Run dispatches the CPU to nextThread, which must already be off all
// queues. With finishing set the outgoing thread is reclaimed once the
// switch has moved execution off its stack.
func (s *Scheduler) Run(nextThread *Thread, finishing bool) {
	s.assertIntOff()
	oldThread := s.current

	now := s.stats.TotalTicks
	nowUser := s.stats.UserTicks
	nextThread.startTime = nowUser
	oldThreadTime := nowUser - oldThread.startTime

	fmt.Fprintf(s.out, "Tick %d: Thread %d is now selected for execution\n", now, nextThread.id)
	fmt.Fprintf(s.out, "Tick %d: Thread %d is replaced, and it has executed %d ticks\n", now, oldThread.id, oldThreadTime)

	if finishing {
		if s.toBeDestroyed != nil {
			panic("scheduler: a finished thread is already pending destruction")
		}
		s.toBeDestroyed = oldThread
	}

	if oldThread.Space != nil {
		oldThread.Space.SaveState()
	}

	s.current = nextThread
	nextThread.status = Running

	util.DPrintf(2, "Switching from: %s to: %s", oldThread.name, nextThread.name)
	s.machine.Switch(oldThread, nextThread)

	// Back on oldThread's stack; some other thread has run in
	// between and dispatched us again.
	s.assertIntOff()
	util.DPrintf(2, "Now in thread: %s", oldThread.name)

	s.checkToBeDestroyed()
	if oldThread.Space != nil {
		oldThread.Space.RestoreState()
	}
}

// checkToBeDestroyed reclaims the thread that gave up the CPU while
// finishing. It could not be reclaimed earlier: until the switch we
// were still running on its stack.
func (s *Scheduler) checkToBeDestroyed() {
	if s.toBeDestroyed != nil {
		util.DPrintf(2, "Destroying thread: %s", s.toBeDestroyed.name)
		s.toBeDestroyed = nil
	}
}

// CheckAging raises a ready thread's priority by AgingBoost once it
// has waited AgingThreshold ticks, moving it up a band when the new
// priority crosses a band edge. The band move is keyed off the
// priority window the boost lands in, so only threads coming from the
// band below move. Reports whether the thread moved into L1.
func (s *Scheduler) CheckAging(thread *Thread) bool {
	now := s.stats.TotalTicks
	if thread.status != Ready || now-thread.startWaitTime < AgingThreshold {
		return false
	}

	oldPriority := thread.priority
	newPriority := oldPriority + AgingBoost
	if newPriority > PriorityMax {
		newPriority = PriorityMax
	}
	thread.priority = newPriority
	if oldPriority != newPriority {
		fmt.Fprintf(s.out, "Tick %d: Thread %d changes its priority from %d to %d\n", now, thread.id, oldPriority, newPriority)
	}

	if newPriority >= L1MinPriority && newPriority < L1MinPriority+AgingBoost {
		// L2 -> L1. A thread not actually queued in L2 just gets
		// re-inserted where its new priority says.
		s.l2.Remove(thread)
		s.l1.Insert(thread)
		fmt.Fprintf(s.out, "Tick %d: Thread %d is removed from queue L2\n", now, thread.id)
		fmt.Fprintf(s.out, "Tick %d: Thread %d is inserted into queue L1\n", now, thread.id)
		s.maybePreempt(thread)
		thread.startWaitTime = now
		return true
	} else if newPriority >= L2MinPriority && newPriority < L2MinPriority+AgingBoost {
		// L3 -> L2.
		s.l3.Remove(thread)
		s.l2.Insert(thread)
		fmt.Fprintf(s.out, "Tick %d: Thread %d is removed from queue L3\n", now, thread.id)
		fmt.Fprintf(s.out, "Tick %d: Thread %d is inserted into queue L2\n", now, thread.id)
	}
	thread.startWaitTime = now
	return false
}

// CheckAgingAll applies CheckAging to every queued thread; the timer
// interrupt handler calls this periodically. It walks a snapshot,
// since aging moves threads between queues.
func (s *Scheduler) CheckAgingAll() {
	var all []*Thread
	all = append(all, s.l1.Threads()...)
	all = append(all, s.l2.Threads()...)
	all = append(all, s.l3.Threads()...)
	for _, t := range all {
		s.CheckAging(t)
	}
}

// Print dumps the ready queues, for debugging.
func (s *Scheduler) Print(w io.Writer) {
	fmt.Fprintf(w, "Ready list contents:\n")
	for _, q := range [][]*Thread{s.l1.Threads(), s.l2.Threads(), s.l3.Threads()} {
		for _, t := range q {
			fmt.Fprintf(w, "Thread %d (%s), priority %d\n", t.id, t.name, t.priority)
		}
	}
}
