//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"loadsplit/process"
	"loadsplit/process_finder"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const (
	accessRights = windows.PROCESS_VM_READ | windows.PROCESS_QUERY_INFORMATION | windows.SYNCHRONIZE

	// WaitForSingleObject result for a process that has not signaled exit
	waitTimeout = 0x00000102
)

var _ process.Process = (*WindowsProcess)(nil)

// WindowsProcess implements the process.Process interface for Windows systems
type WindowsProcess struct {
	pid  process.ProcessID
	name string
	log  *logger.Logger

	mu     sync.Mutex
	handle windows.Handle
}

// NewWithPID opens the process with the given PID for reading
func NewWithPID(pid process.ProcessID, name string) (*WindowsProcess, error) {
	handle, err := windows.OpenProcess(accessRights, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess failed: %w", err)
	}

	p := &WindowsProcess{
		pid:    pid,
		name:   name,
		handle: handle,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	p.log.Infoln("Process opened:", name)
	return p, nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	return p.pid
}

func (p *WindowsProcess) Name() string {
	return p.name
}

// IsOpen reports whether the process handle has not yet signaled exit
func (p *WindowsProcess) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return false
	}

	event, err := windows.WaitForSingleObject(p.handle, 0)
	if err != nil {
		return false
	}
	return event == waitTimeout
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return nil
	}

	err := windows.CloseHandle(p.handle)
	p.handle = 0
	if err != nil {
		return fmt.Errorf("CloseHandle failed: %w", err)
	}

	p.log.Infoln("Process closed")
	return nil
}

func (p *WindowsProcess) MainModuleBase() (process.ProcessMemoryAddress, error) {
	entry, err := p.mainModule()
	if err != nil {
		return 0, err
	}
	return process.ProcessMemoryAddress(entry.ModBaseAddr), nil
}

func (p *WindowsProcess) MainModuleSize() (process.ProcessMemorySize, error) {
	entry, err := p.mainModule()
	if err != nil {
		return 0, err
	}
	return process.ProcessMemorySize(entry.ModBaseSize), nil
}

// mainModule walks the module snapshot for the module named after the
// process, falling back to the first module which is the executable
func (p *WindowsProcess) mainModule() (windows.ModuleEntry32, error) {
	var first windows.ModuleEntry32

	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(p.pid))
	if err != nil {
		return first, fmt.Errorf("CreateToolhelp32Snapshot failed: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	entry := windows.ModuleEntry32{Size: uint32(unsafe.Sizeof(windows.ModuleEntry32{}))}
	err = windows.Module32First(snapshot, &entry)
	if err != nil {
		return first, fmt.Errorf("%s in pid %d: %w", p.name, p.pid, process.ErrModuleNotFound)
	}
	first = entry

	for {
		if strings.EqualFold(windows.UTF16ToString(entry.Module[:]), p.name) {
			return entry, nil
		}

		err = windows.Module32Next(snapshot, &entry)
		if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
			break
		}
		if err != nil {
			return first, fmt.Errorf("Module32Next failed: %w", err)
		}
	}

	return first, nil
}

// ReadMemory reads memory from the process at the specified address
func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	handle := p.handle
	p.mu.Unlock()

	if handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	if size == 0 {
		return nil, nil
	}

	buffer := make([]byte, size)
	var bytesRead uintptr

	err := windows.ReadProcessMemory(handle, uintptr(addr), &buffer[0], uintptr(size), &bytesRead)
	if err != nil {
		if errors.Is(err, windows.ERROR_PARTIAL_COPY) || errors.Is(err, windows.ERROR_NOACCESS) {
			return nil, fmt.Errorf("%s: %w", addr.ToString(), process.ErrAddressNotMapped)
		}
		return nil, fmt.Errorf("ReadProcessMemory failed: %w", err)
	}

	if bytesRead != uintptr(size) {
		return buffer[:bytesRead], fmt.Errorf("partial read: %d of %d bytes", bytesRead, size)
	}

	return buffer, nil
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
