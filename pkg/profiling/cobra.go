package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"
)

// CobraProfiler hangs profiling flags off a command tree and captures
// profiles across its run. Wire AddFlags onto the root command and the
// PreRun/PostRun pair onto its persistent hooks.
type CobraProfiler struct {
	cpuPath string
	memPath string
	timing  bool

	cpuFile *os.File
}

// NewCobraProfiler creates an unconfigured profiler.
func NewCobraProfiler() *CobraProfiler {
	return &CobraProfiler{}
}

// AddFlags registers the profiling flags on cmd.
func (p *CobraProfiler) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&p.cpuPath, "cpu-profile", "", "Write CPU profile to file")
	flags.StringVar(&p.memPath, "mem-profile", "", "Write memory profile to file")
	flags.BoolVar(&p.timing, "timing", false, "Print timing summary on exit")
}

// PreRun starts the requested captures. Use as PersistentPreRunE.
func (p *CobraProfiler) PreRun(cmd *cobra.Command, args []string) error {
	if p.timing {
		Enable()
	}
	if p.cpuPath == "" {
		return nil
	}
	return p.startCPU()
}

func (p *CobraProfiler) startCPU() error {
	f, err := os.Create(p.cpuPath)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	p.cpuFile = f
	return nil
}

// PostRun finishes the captures and writes the outputs. Use as
// PersistentPostRun.
func (p *CobraProfiler) PostRun(cmd *cobra.Command, args []string) {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.cpuFile = nil
		fmt.Fprintf(os.Stderr, "CPU profile written to %s\n", p.cpuPath)
	}

	if p.memPath != "" {
		p.writeHeap()
	}

	if p.timing {
		Summarize(os.Stderr)
	}
}

func (p *CobraProfiler) writeHeap() {
	f, err := os.Create(p.memPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
		return
	}
	defer f.Close()

	runtime.GC() // heap stats are stale without a collection
	if err := pprof.WriteHeapProfile(f); err != nil {
		fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Memory profile written to %s\n", p.memPath)
}
