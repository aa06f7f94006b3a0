package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tim70036/OS-Nachos/config"
	"github.com/tim70036/OS-Nachos/disk"
	"github.com/tim70036/OS-Nachos/kernel"
	"github.com/tim70036/OS-Nachos/sched"
	"github.com/tim70036/OS-Nachos/util"
)

//nolint:gochecknoglobals
var (
	ExitCode = 0

	envFile    = flag.String("env", ".env", "path to the env config file")
	diskImage  = flag.String("disk", "", "disk image file (empty for an in-memory disk)")
	formatDisk = flag.Bool("format", true, "lay out an empty filesystem on the disk")
	selfTest   = flag.Bool("selftest", true, "run the filesystem and scheduler self-test")
)

func setupLogging() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}),
	))
}

func openDisk(cfg config.Config) (disk.Disk, error) {
	if cfg.DiskImage != "" {
		return disk.NewFileDisk(cfg.DiskImage, cfg.NumSectors)
	}
	return disk.NewMemDisk(cfg.NumSectors), nil
}

// fsSelfTest walks the filesystem through a small create/list/remove
// script and dumps its state.
func fsSelfTest(k *kernel.Kernel) error {
	steps := []struct {
		path  string
		size  int32
		isDir bool
	}{
		{"/docs", 0, true},
		{"/docs/readme", 256, false},
		{"/docs/notes", 64, false},
		{"/var", 0, true},
		{"/var/log", 0, true},
		{"/var/log/boot", 100, false},
	}
	for _, s := range steps {
		if err := k.FS.Create(s.path, s.size, s.isDir); err != nil {
			return fmt.Errorf("create %s: %w", s.path, err)
		}
	}

	f, err := k.FS.Open("/docs/readme")
	if err != nil {
		return err
	}
	if _, err := f.Write([]byte("hello, disk")); err != nil {
		return err
	}
	f.Close()

	fmt.Println("Listing /:")
	if err := k.FS.List("/", true); err != nil {
		return err
	}
	if err := k.FS.Remove("/var", true); err != nil {
		return err
	}
	fmt.Println("After removing /var:")
	if err := k.FS.List("/", true); err != nil {
		return err
	}
	return k.FS.Print()
}

// schedSelfTest forks threads into all three bands and drives a few
// dispatches and one aging round.
func schedSelfTest(k *kernel.Kernel) {
	k.Fork("editor", 120, 8)
	k.Fork("daemon", 70, 0)
	k.Fork("batch", 20, 0)

	for i := 0; i < 3; i++ {
		k.Stats.AdvanceSystem(1)
		k.Scheduler.Yield()
	}
	k.Stats.AdvanceSystem(sched.AgingThreshold)
	k.Scheduler.CheckAgingAll()
	k.Scheduler.Print(os.Stdout)
	k.Stats.Print(os.Stdout)
}

func run() error {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *diskImage != "" {
		cfg.DiskImage = *diskImage
	}
	util.Debug = cfg.Debug

	d, err := openDisk(cfg)
	if err != nil {
		return err
	}
	k, err := kernel.MkKernel(d, *formatDisk, cfg)
	if err != nil {
		d.Close()
		return err
	}
	defer k.Close()
	slog.Info("Kernel up.", "sectors", cfg.NumSectors, "dirEntries", cfg.NumDirEntries)

	if *selfTest {
		if err := fsSelfTest(k); err != nil {
			return err
		}
		schedSelfTest(k)
	}
	return nil
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	flag.Parse()
	setupLogging()

	if err := run(); err != nil {
		slog.Error("Kernel failure.", "err", err)
		ExitCode = 1
	}
}
