//go:build windows

package main

import (
	"loadsplit/process"
	"loadsplit/process_windows"
)

func newAttacher() process.Attacher {
	return process_windows.NewAttacher()
}
