//go:build linux

package main

import (
	"fmt"

	"loadsplit/process"
	"loadsplit/process_finder"
	"loadsplit/process_linux"

	"github.com/spf13/cobra"
)

var (
	dumpOut string
	dumpPID int
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Save the main module image of the running game for offline scans",
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOut, "out", "o", "", "output directory")
	dumpCmd.Flags().IntVar(&dumpPID, "pid", 0, "process ID to dump instead of looking up the process names")
	dumpCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	pid, name, err := dumpTarget()
	if err != nil {
		return err
	}

	proc, err := process_linux.NewWithPID(pid, name)
	if err != nil {
		return err
	}
	defer proc.Close()

	saved, err := proc.SaveMainModule(dumpOut)
	if err != nil {
		return err
	}
	fmt.Printf("saved %d regions of %s (pid %d) to %s\n", saved, name, pid, dumpOut)
	return nil
}

func dumpTarget() (process.ProcessID, string, error) {
	if dumpPID != 0 {
		// the first name identifies the main module of an explicit PID
		return process.ProcessID(dumpPID), settings.ProcessNames[0], nil
	}

	finder := process_finder.New()
	for _, name := range settings.ProcessNames {
		info, err := finder.FindOne(name)
		if err == nil {
			return info.PID, name, nil
		}
	}
	return 0, "", fmt.Errorf("none of %v: %w", settings.ProcessNames, process_finder.ErrNotRunning)
}
