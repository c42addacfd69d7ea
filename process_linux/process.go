//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"loadsplit/process"
	"loadsplit/process/memory_map"
	"loadsplit/process_finder"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// mapsRefreshInterval limits how often a failed address check re-reads /proc/<pid>/maps
const mapsRefreshInterval = 250 * time.Millisecond

var _ process.Process = (*LinuxProcess)(nil)

// LinuxProcess implements the process.Process interface for Linux systems
type LinuxProcess struct {
	pid  process.ProcessID
	name string
	log  *logger.Logger

	mu          sync.Mutex
	mm          []memory_map.MemoryMapItem
	lastRefresh time.Time
	closed      bool
}

// NewWithPID opens the process with the given PID. name is the executable
// that identifies the main module.
func NewWithPID(pid process.ProcessID, name string) (*LinuxProcess, error) {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("process with PID %d does not exist", pid)
	}

	p := &LinuxProcess{
		pid:  pid,
		name: name,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	if err := p.UpdateMemoryMap(); err != nil {
		return nil, fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened:", name)
	return p, nil
}

func (p *LinuxProcess) GetPID() process.ProcessID {
	return p.pid
}

func (p *LinuxProcess) Name() string {
	return p.name
}

// IsOpen reports whether the PID still refers to a live process
func (p *LinuxProcess) IsOpen() bool {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return false
	}

	if !process_finder.Alive(p.pid) {
		return false
	}

	// a zombie keeps its PID but has no address space left
	state, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", p.pid))
	if err != nil {
		return false
	}
	return !isZombieStat(state)
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.mm = nil
	p.log.Infoln("Process closed")
	return nil
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	mm, err := memory_map.ReadMemoryMap(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mu.Lock()
	p.mm = mm
	p.lastRefresh = time.Now()
	p.mu.Unlock()
	return nil
}

// GetMemoryMap returns a copy of the current memory map
func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, process.ErrProcessNotOpen
	}

	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

func (p *LinuxProcess) MainModuleBase() (process.ProcessMemoryAddress, error) {
	base, _, err := p.mainModule()
	return base, err
}

func (p *LinuxProcess) MainModuleSize() (process.ProcessMemorySize, error) {
	_, size, err := p.mainModule()
	return size, err
}

// mainModule finds the mapping of the executable. The module may not be
// mapped yet right after exec, so the map is re-read each time.
func (p *LinuxProcess) mainModule() (process.ProcessMemoryAddress, process.ProcessMemorySize, error) {
	if err := p.UpdateMemoryMap(); err != nil {
		return 0, 0, err
	}

	mm, err := p.GetMemoryMap()
	if err != nil {
		return 0, 0, err
	}

	if base, size, ok := memory_map.ModuleSpan(p.name, mm); ok {
		return process.ProcessMemoryAddress(base), process.ProcessMemorySize(size), nil
	}

	// native executables are mapped under their exe path
	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", p.pid)); err == nil {
		if base, size, ok := memory_map.ModuleSpan(filepath.Base(exe), mm); ok {
			return process.ProcessMemoryAddress(base), process.ProcessMemorySize(size), nil
		}
	}

	return 0, 0, fmt.Errorf("%s in pid %d: %w", p.name, p.pid, process.ErrModuleNotFound)
}

// isReadable checks the cached map and re-reads it once when the range is
// unknown, rate limited by mapsRefreshInterval
func (p *LinuxProcess) isReadable(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	if addr <= 0x10000 {
		return false
	}

	p.mu.Lock()
	ok := memory_map.IsReadableRange(uint64(addr), uint64(size), p.mm)
	stale := time.Since(p.lastRefresh) > mapsRefreshInterval
	p.mu.Unlock()

	if ok || !stale {
		return ok
	}

	if err := p.UpdateMemoryMap(); err != nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return memory_map.IsReadableRange(uint64(addr), uint64(size), p.mm)
}

// isZombieStat parses the state field of /proc/<pid>/stat. The command name
// in parentheses may itself contain spaces or parentheses.
func isZombieStat(stat []byte) bool {
	for i := len(stat) - 1; i >= 0; i-- {
		if stat[i] == ')' {
			if i+2 < len(stat) {
				s := stat[i+2]
				return s == 'Z' || s == 'X'
			}
			return false
		}
	}
	return false
}

// Attacher opens processes found by name
type Attacher struct {
	Finder *process_finder.Finder
}

// NewAttacher returns an Attacher using the gopsutil process listing
func NewAttacher() *Attacher {
	return &Attacher{Finder: process_finder.New()}
}

func (a *Attacher) Attach(name string) (process.Process, error) {
	info, err := a.Finder.FindOne(name)
	if err != nil {
		return nil, err
	}
	proc, err := NewWithPID(info.PID, name)
	if err != nil {
		// the cached listing may hold a PID that has already exited
		a.Finder.Invalidate()
		return nil, err
	}
	return proc, nil
}
