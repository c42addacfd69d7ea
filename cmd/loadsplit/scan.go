package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"loadsplit/hexdump"
	"loadsplit/process"
	"loadsplit/process_blob"
	"loadsplit/resolver"
	"loadsplit/retry"

	"github.com/spf13/cobra"
)

var (
	scanDump    string
	scanWait    bool
	scanContext int
	scanNoColor bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Resolve the world pointer once and show the bytes around the match",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanDump, "dump", "", "scan a saved module dump instead of the live process")
	scanCmd.Flags().BoolVar(&scanWait, "wait", false, "wait for the process and the signature to appear")
	scanCmd.Flags().IntVar(&scanContext, "context", 32, "bytes shown after the match")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false, "disable colors in the hex dump")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	res, err := settings.Resolver()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := openScanTarget(ctx)
	if err != nil {
		return err
	}
	defer proc.Close()

	base, err := waitModule(ctx, proc)
	if err != nil {
		return err
	}

	var resolved resolver.Resolved
	if scanWait {
		resolved, err = res.Wait(ctx, settings.TickInterval, proc, base)
	} else {
		resolved, err = res.Resolve(proc, base)
	}
	if err != nil {
		return fmt.Errorf("resolve in %s: %w", proc.Name(), err)
	}

	fmt.Printf("process:  %s (pid %d)\n", proc.Name(), proc.GetPID())
	fmt.Printf("module:   %s\n", base.ToString())
	fmt.Printf("match:    %s (+0x%X)\n", resolved.Match.ToString(), uint64(resolved.Match-base))
	fmt.Printf("resolved: %s\n", resolved.Address.ToString())

	data, err := proc.ReadMemory(resolved.Match, process.ProcessMemorySize(res.Signature.Len()+scanContext))
	if err != nil {
		return fmt.Errorf("read context: %w", err)
	}

	opts := hexdump.DefaultOptions()
	opts.StartAddress = uint64(resolved.Match)
	opts.HighlightStart = int(res.DisplacementOffset)
	opts.HighlightLen = 4
	opts.Color = !scanNoColor
	fmt.Print(hexdump.Dump(data, opts))

	raw, err := process.ReadPath[uint8](proc, resolved.Address, settings.LoadStatePath...)
	if err != nil {
		fmt.Printf("load state: unavailable (%v)\n", err)
		return nil
	}
	fmt.Printf("load state: %d (loading=%t)\n", raw, raw == 0)
	return nil
}

// openScanTarget loads the dump or attaches to the first configured name
// that is running
func openScanTarget(ctx context.Context) (process.Process, error) {
	if scanDump != "" {
		img, err := process_blob.Load(scanDump)
		if err != nil {
			return nil, err
		}
		return img, nil
	}

	attacher := newAttacher()
	attach := func() (process.Process, error) {
		var errs []error
		for _, name := range settings.ProcessNames {
			proc, err := attacher.Attach(name)
			if err == nil {
				return proc, nil
			}
			errs = append(errs, err)
		}
		return nil, errors.Join(errs...)
	}

	if !scanWait {
		return attach()
	}
	return retry.Until(ctx, settings.TickInterval, attach)
}

func waitModule(ctx context.Context, proc process.Process) (process.ProcessMemoryAddress, error) {
	if !scanWait {
		return proc.MainModuleBase()
	}
	return retry.Until(ctx, settings.TickInterval, func() (process.ProcessMemoryAddress, error) {
		if !proc.IsOpen() {
			return 0, retry.Stop(process.ErrProcessNotOpen)
		}
		return proc.MainModuleBase()
	})
}
