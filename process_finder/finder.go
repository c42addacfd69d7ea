// Package process_finder looks up running processes by executable name.
package process_finder

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"loadsplit/process"

	gopsprocess "github.com/shirou/gopsutil/process"
)

// ErrNotRunning is returned when no process matches the requested name
var ErrNotRunning = errors.New("process not running")

// Candidate is the subset of a process listing used for matching
type Candidate struct {
	PID     process.ProcessID
	Name    string
	Cmdline []string
	Exe     string
}

// Matches reports whether the candidate runs the executable called name.
// The kernel truncates process names, and Wine reports Windows paths in
// argv[0], so the argv[0] and exe basenames are compared as well.
func (c Candidate) Matches(name string) bool {
	if strings.EqualFold(c.Name, name) {
		return true
	}
	if len(c.Cmdline) > 0 && strings.EqualFold(baseName(c.Cmdline[0]), name) {
		return true
	}
	return c.Exe != "" && strings.EqualFold(baseName(c.Exe), name)
}

// baseName handles both / and \ separated paths
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Lister enumerates running processes
type Lister func() ([]Candidate, error)

// DefaultListTTL is how long a Finder from New reuses a process listing
const DefaultListTTL = time.Second

// Finder resolves names to PIDs
type Finder struct {
	List Lister

	// TTL reuses a successful listing for this long; zero lists every call
	TTL time.Duration

	now      func() time.Time
	mu       sync.Mutex
	cached   []Candidate
	cachedAt time.Time
}

// New returns a Finder backed by gopsutil
func New() *Finder {
	return &Finder{List: ListProcesses, TTL: DefaultListTTL}
}

// candidates returns the cached listing while it is younger than TTL.
// Failed listings are not cached.
func (f *Finder) candidates() ([]Candidate, error) {
	if f.TTL <= 0 {
		return f.List()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now
	if f.now != nil {
		now = f.now
	}

	t := now()
	if f.cached != nil && t.Sub(f.cachedAt) < f.TTL {
		return f.cached, nil
	}

	list, err := f.List()
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Candidate{}
	}
	f.cached, f.cachedAt = list, t
	return list, nil
}

// Invalidate drops the cached listing
func (f *Finder) Invalidate() {
	f.mu.Lock()
	f.cached = nil
	f.mu.Unlock()
}

// FindByName returns every process matching name, lowest PID first
func (f *Finder) FindByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	candidates, err := f.candidates()
	if err != nil {
		return nil, err
	}

	self := process.ProcessID(os.Getpid())
	var out []process.ProcessInfo
	for _, c := range candidates {
		if c.PID == self || !c.Matches(name) {
			continue
		}
		out = append(out, process.ProcessInfo{PID: c.PID, Name: name, Exe: c.Exe})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

// FindOne returns the lowest PID running name
func (f *Finder) FindOne(name string) (process.ProcessInfo, error) {
	ps, err := f.FindByName(name)
	if err != nil {
		return process.ProcessInfo{}, err
	}
	if len(ps) == 0 {
		return process.ProcessInfo{}, fmt.Errorf("%s: %w", name, ErrNotRunning)
	}
	return ps[0], nil
}

// ListProcesses lists processes with gopsutil, skipping any that exit or
// deny access while being inspected
func ListProcesses() ([]Candidate, error) {
	procs, err := gopsprocess.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	out := make([]Candidate, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		c := Candidate{PID: process.ProcessID(p.Pid), Name: name}
		if cmdline, err := p.CmdlineSlice(); err == nil {
			c.Cmdline = cmdline
		}
		if exe, err := p.Exe(); err == nil {
			c.Exe = exe
		}
		out = append(out, c)
	}
	return out, nil
}

// Alive reports whether pid still exists
func Alive(pid process.ProcessID) bool {
	ok, err := gopsprocess.PidExists(int32(pid))
	return err == nil && ok
}
