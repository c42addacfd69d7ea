package autosplit

import (
	"fmt"
	"time"

	"loadsplit/watcher"
)

// State is where the tick loop currently is in the attach cycle
type State int

const (
	// Disconnected holds no process
	Disconnected State = iota
	// Connecting is attached and waiting for the main module to be mapped
	Connecting
	// Scanning has the module base and waits for the signature to resolve
	Scanning
	// Monitoring polls the load state every tick
	Monitoring
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Scanning:
		return "Scanning"
	case Monitoring:
		return "Monitoring"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Signals is the per-tick view handed to the decision logic
type Signals struct {
	LoadState watcher.Pair[uint8]
}

// Loading is true while the game reports a load screen
func (s Signals) Loading() bool {
	return s.LoadState.Current == 0
}

// Hooks are optional predicates for the timer actions the default logic
// never takes. A nil hook means "no".
type Hooks struct {
	Start    func(Signals) bool
	Split    func(Signals) bool
	Reset    func(Signals) bool
	GameTime func(Signals) (time.Duration, bool)
}

func (h Hooks) start(s Signals) bool {
	return h.Start != nil && h.Start(s)
}

func (h Hooks) split(s Signals) bool {
	return h.Split != nil && h.Split(s)
}

func (h Hooks) reset(s Signals) bool {
	return h.Reset != nil && h.Reset(s)
}

func (h Hooks) gameTime(s Signals) (time.Duration, bool) {
	if h.GameTime == nil {
		return 0, false
	}
	return h.GameTime(s)
}
