package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"
)

// profiler records a CPU profile for the duration of a command and a heap
// profile when it finishes. It is inert while prefix is empty.
type profiler struct {
	prefix string
	cpu    *os.File
}

func (p *profiler) start() error {
	if p.prefix == "" {
		return nil
	}
	f, err := os.Create(p.prefix + ".cpu.pprof")
	if err != nil {
		return fmt.Errorf("failed to create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	p.cpu = f
	return nil
}

func (p *profiler) stop() error {
	if p.prefix == "" {
		return nil
	}
	if p.cpu != nil {
		pprof.StopCPUProfile()
		p.cpu.Close()
		p.cpu = nil
		color.Green("CPU profile written to %s.cpu.pprof", p.prefix)
	}
	return p.writeHeap()
}

func (p *profiler) writeHeap() error {
	f, err := os.Create(p.prefix + ".mem.pprof")
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	color.Green("Memory profile written to %s.mem.pprof", p.prefix)
	return nil
}
