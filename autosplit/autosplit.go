// Package autosplit attaches to the game, resolves the world pointer and
// pauses game time on the external timer while the game is loading.
package autosplit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"loadsplit/process"
	"loadsplit/resolver"
	"loadsplit/timer"
	"loadsplit/watcher"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/rs/xid"
)

// Config selects the game build the autosplitter understands
type Config struct {
	// ProcessNames are tried in order; the first that attaches wins
	ProcessNames []string

	Resolver *resolver.Resolver

	// LoadStatePath leads from the resolved address to the load state byte
	LoadStatePath []process.ProcessMemorySize

	Hooks Hooks

	// Verbose logs every transient miss instead of the first of a streak
	Verbose bool
}

// Autosplitter owns the whole per-process state. Tick may be called from
// any goroutine; calls are serialised.
type Autosplitter struct {
	mu sync.Mutex

	attacher process.Attacher
	timer    timer.Timer
	cfg      Config
	log      *logger.Logger

	state      State
	session    string
	proc       process.Process
	moduleBase process.ProcessMemoryAddress
	resolved   resolver.Resolved
	loadState  watcher.Watcher[uint8]

	missing   map[string]bool
	timerDown bool
}

// New creates an autosplitter in the Disconnected state
func New(attacher process.Attacher, t timer.Timer, cfg Config) *Autosplitter {
	if cfg.Resolver == nil {
		cfg.Resolver = resolver.New()
	}
	return &Autosplitter{
		attacher: attacher,
		timer:    t,
		cfg:      cfg,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "autosplit")),
		missing:  make(map[string]bool),
	}
}

// State returns the current attach state
func (a *Autosplitter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Resolved returns the address found for the current process
func (a *Autosplitter) Resolved() (process.ProcessMemoryAddress, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolved.Address, a.state == Monitoring
}

// Run ticks until ctx is done
func (a *Autosplitter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		a.Tick()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the attached process, if any
func (a *Autosplitter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.proc == nil {
		return nil
	}
	err := a.proc.Close()
	a.discard()
	return err
}

// Tick advances the state machine by at most one poll. A stage that succeeds
// hands over to the next stage in the same tick; a stage that fails ends the
// tick and is retried on the next one.
func (a *Autosplitter) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == Disconnected && !a.attach() {
		return
	}

	if !a.proc.IsOpen() {
		a.processLost()
		return
	}

	if a.state == Connecting && !a.findModule() {
		return
	}

	if a.state == Scanning && !a.scan() {
		return
	}

	a.monitor()
}

func (a *Autosplitter) attach() bool {
	for _, name := range a.cfg.ProcessNames {
		proc, err := a.attacher.Attach(name)
		if err != nil {
			continue
		}

		a.proc = proc
		a.session = xid.New().String()
		a.state = Connecting
		a.recovered("attach")
		a.log.Infoln("Attached to", name, "pid", proc.GetPID(), "session", a.session)
		return true
	}

	a.miss("attach", fmt.Errorf("none of %v is running", a.cfg.ProcessNames))
	return false
}

func (a *Autosplitter) findModule() bool {
	base, err := a.proc.MainModuleBase()
	if err != nil {
		a.miss("module", err)
		return false
	}

	a.moduleBase = base
	a.state = Scanning
	a.recovered("module")
	a.log.Infoln("Main module at", base.ToString(), "session", a.session)
	return true
}

func (a *Autosplitter) scan() bool {
	res, err := a.cfg.Resolver.Resolve(a.proc, a.moduleBase)
	if err != nil {
		a.miss("scan", err)
		return false
	}

	a.resolved = res
	a.state = Monitoring
	a.recovered("scan")
	a.log.Infoln("Signature at", res.Match.ToString(), "resolved", res.Address.ToString(), "session", a.session)
	return true
}

func (a *Autosplitter) monitor() {
	raw, err := process.ReadPath[uint8](a.proc, a.resolved.Address, a.cfg.LoadStatePath...)
	if err != nil {
		a.miss("load state", err)
	} else {
		a.recovered("load state")
	}

	pair, ok := a.loadState.UpdateFrom(raw, err)
	if !ok {
		return
	}

	state, err := a.timer.State()
	if !a.timerResult("state", err) {
		return
	}

	a.decide(state, Signals{LoadState: pair})
}

// decide issues at most one of pause/resume per tick and the optional hook
// actions. Nothing is sent while the timer has not been started.
func (a *Autosplitter) decide(state timer.State, sig Signals) {
	switch state {
	case timer.NotRunning:
		if a.cfg.Hooks.start(sig) {
			a.timerResult("start", a.timer.Start())
		}
	case timer.Running, timer.Paused:
		if a.cfg.Hooks.reset(sig) {
			a.timerResult("reset", a.timer.Reset())
			return
		}
		if a.cfg.Hooks.split(sig) {
			a.timerResult("split", a.timer.Split())
		}

		if sig.Loading() {
			a.timerResult("pause game time", a.timer.PauseGameTime())
		} else {
			a.timerResult("resume game time", a.timer.ResumeGameTime())
		}

		if d, ok := a.cfg.Hooks.gameTime(sig); ok {
			a.timerResult("set game time", a.timer.SetGameTime(d))
		}
	}
}

// processLost stops game time from running against a dead process and
// drops everything derived from it.
func (a *Autosplitter) processLost() {
	a.log.Infoln("Process closed, session", a.session)

	if state, err := a.timer.State(); a.timerResult("state", err) && state == timer.Running {
		a.timerResult("pause game time", a.timer.PauseGameTime())
	}

	if err := a.proc.Close(); err != nil {
		a.log.Debugln("close:", err)
	}
	a.discard()
}

func (a *Autosplitter) discard() {
	a.proc = nil
	a.session = ""
	a.moduleBase = 0
	a.resolved = resolver.Resolved{}
	a.loadState.Reset()
	a.missing = make(map[string]bool)
	a.state = Disconnected
}

// miss logs a transient failure, once per streak unless verbose
func (a *Autosplitter) miss(stage string, err error) {
	if a.missing[stage] && !a.cfg.Verbose {
		return
	}
	a.missing[stage] = true
	a.log.Debugln("Waiting on", stage+":", err)
}

func (a *Autosplitter) recovered(stage string) {
	delete(a.missing, stage)
}

func (a *Autosplitter) timerResult(cmd string, err error) bool {
	if err != nil {
		if !a.timerDown {
			a.log.Warn("timer ", cmd, " failed: ", err)
		}
		a.timerDown = true
		return false
	}
	if a.timerDown {
		a.log.Infoln("Timer reachable again")
		a.timerDown = false
	}
	return true
}
