//go:build linux

package main

import (
	"loadsplit/process"
	"loadsplit/process_linux"
)

func newAttacher() process.Attacher {
	return process_linux.NewAttacher()
}
