package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"loadsplit/autosplit"
	"loadsplit/timer"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach to the game and control the LiveSplit game timer",
	RunE:  runAutosplitter,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func newTimer() (timer.Timer, func() error) {
	if settings.DryRun {
		return timer.NewDry(timer.Running), func() error { return nil }
	}
	ls := timer.NewLiveSplit(settings.LiveSplitAddress, settings.LiveSplitTimeout)
	return ls, ls.Close
}

func runAutosplitter(cmd *cobra.Command, args []string) error {
	res, err := settings.Resolver()
	if err != nil {
		return err
	}

	t, closeTimer := newTimer()
	a := autosplit.New(newAttacher(), t, autosplit.Config{
		ProcessNames:  settings.ProcessNames,
		Resolver:      res,
		LoadStatePath: settings.LoadStatePath,
		Verbose:       settings.Verbose,
	})

	atexit.Register(func() {
		a.Close()
		closeTimer()
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.Run(ctx, settings.TickInterval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
