package config

import (
	"fmt"
	"time"

	"loadsplit/process"

	"github.com/spf13/pflag"
)

// Flags holds the command line overrides. Only flags the user actually set
// are applied, so the environment keeps priority over flag defaults.
type Flags struct {
	fs *pflag.FlagSet

	processNames       []string
	signature          string
	displacementOffset string
	loadStatePath      string
	moduleSize         string
	tickInterval       time.Duration
	liveSplitAddress   string
	liveSplitTimeout   time.Duration
	dryRun             bool
	verbose            bool
}

// BindFlags registers the settings flags on fs with defaults from d
func BindFlags(fs *pflag.FlagSet, d Settings) *Flags {
	f := &Flags{fs: fs}
	fs.StringSliceVarP(&f.processNames, "process", "p", d.ProcessNames, "process names to attach to, in priority order")
	fs.StringVar(&f.signature, "signature", d.Signature, "byte signature of the world pointer load")
	fs.StringVar(&f.displacementOffset, "displacement-offset", fmt.Sprintf("0x%X", uint64(d.DisplacementOffset)), "offset of the rel32 displacement inside the match")
	fs.StringVar(&f.loadStatePath, "load-state-path", FormatPath(d.LoadStatePath), "pointer path from the world pointer to the load state byte")
	fs.StringVar(&f.moduleSize, "module-size", fmt.Sprintf("0x%X", uint64(d.ModuleSize)), "module size to scan when the process does not report one")
	fs.DurationVar(&f.tickInterval, "interval", d.TickInterval, "poll interval")
	fs.StringVar(&f.liveSplitAddress, "livesplit", d.LiveSplitAddress, "LiveSplit Server address")
	fs.DurationVar(&f.liveSplitTimeout, "livesplit-timeout", d.LiveSplitTimeout, "LiveSplit Server I/O timeout")
	fs.BoolVar(&f.dryRun, "dry-run", d.DryRun, "log timer commands instead of sending them")
	fs.BoolVarP(&f.verbose, "verbose", "v", d.Verbose, "log every transient miss")
	return f
}

// Apply overlays the flags that were set on the command line
func (f *Flags) Apply(s *Settings) error {
	changed := func(name string) bool {
		fl := f.fs.Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("process") {
		s.ProcessNames = f.processNames
	}
	if changed("signature") {
		s.Signature = f.signature
	}
	if changed("displacement-offset") {
		n, err := ParseNumber(f.displacementOffset)
		if err != nil {
			return fmt.Errorf("--displacement-offset: %w", err)
		}
		s.DisplacementOffset = process.ProcessMemorySize(n)
	}
	if changed("load-state-path") {
		path, err := ParsePath(f.loadStatePath)
		if err != nil {
			return fmt.Errorf("--load-state-path: %w", err)
		}
		s.LoadStatePath = path
	}
	if changed("module-size") {
		n, err := ParseNumber(f.moduleSize)
		if err != nil {
			return fmt.Errorf("--module-size: %w", err)
		}
		s.ModuleSize = process.ProcessMemorySize(n)
	}
	if changed("interval") {
		s.TickInterval = f.tickInterval
	}
	if changed("livesplit") {
		s.LiveSplitAddress = f.liveSplitAddress
	}
	if changed("livesplit-timeout") {
		s.LiveSplitTimeout = f.liveSplitTimeout
	}
	if changed("dry-run") {
		s.DryRun = f.dryRun
	}
	if changed("verbose") {
		s.Verbose = f.verbose
	}
	return nil
}
