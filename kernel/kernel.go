// Package kernel wires the process-wide singletons together: the
// simulated disk, the filesystem, the scheduler and its collaborators.
// Everything is an explicit field on the Kernel context object; there
// are no package globals to reach through.
package kernel

import (
	"github.com/tim70036/OS-Nachos/config"
	"github.com/tim70036/OS-Nachos/disk"
	"github.com/tim70036/OS-Nachos/fs"
	"github.com/tim70036/OS-Nachos/sched"
	"github.com/tim70036/OS-Nachos/stats"
	"github.com/tim70036/OS-Nachos/util"
)

// Interrupt is the software interrupt controller of the simulation:
// a level flag the scheduler asserts on entry.
type Interrupt struct {
	level sched.IntLevel
}

func (i *Interrupt) Level() sched.IntLevel {
	return i.level
}

// SetLevel changes the interrupt level and returns the old one, so
// callers can restore it on the way out.
func (i *Interrupt) SetLevel(level sched.IntLevel) sched.IntLevel {
	old := i.level
	i.level = level
	return old
}

// directSwitch stands in for the machine-dependent SWITCH primitive.
// The simulation is single-stack, so handing the CPU over is a return.
type directSwitch struct{}

func (directSwitch) Switch(old, next *sched.Thread) {
	util.DPrintf(3, "SWITCH: %s -> %s", old.Name(), next.Name())
}

type Kernel struct {
	Disk      disk.Disk
	FS        *fs.FileSystem
	Stats     *stats.Stats
	Interrupt *Interrupt
	Scheduler *sched.Scheduler

	nextThreadID int
}

// MkKernel boots a kernel over d. With format set the disk is laid
// out fresh. The boot thread becomes the scheduler's current thread.
func MkKernel(d disk.Disk, format bool, cfg config.Config) (*Kernel, error) {
	filesys, err := fs.MkFileSystemSized(d, format, cfg.NumDirEntries)
	if err != nil {
		return nil, err
	}
	k := &Kernel{
		Disk:      d,
		FS:        filesys,
		Stats:     stats.MkStats(),
		Interrupt: &Interrupt{level: sched.IntOff},
	}
	k.Scheduler = sched.MkScheduler(k.Stats, k.Interrupt, directSwitch{})

	main := sched.MkThread(k.nextThreadID, "main", 0)
	k.nextThreadID++
	k.Scheduler.SetCurrent(main)
	return k, nil
}

// Fork creates a thread and puts it on the ready list.
func (k *Kernel) Fork(name string, priority int, burst float64) *sched.Thread {
	t := sched.MkThread(k.nextThreadID, name, priority)
	k.nextThreadID++
	t.SetBurstEstimate(burst)

	old := k.Interrupt.SetLevel(sched.IntOff)
	k.Scheduler.ReadyToRun(t)
	k.Interrupt.SetLevel(old)
	return t
}

func (k *Kernel) Close() {
	k.FS.Close()
	k.Disk.Close()
}
