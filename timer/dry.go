package timer

import (
	"sync"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

var _ Timer = (*Dry)(nil)

// Dry logs timer commands instead of sending them and keeps enough state of
// its own to answer State. Game-time pause changes are logged only when they
// change something.
type Dry struct {
	mu             sync.Mutex
	state          State
	gameTimePaused bool
	log            *logger.Logger
}

// NewDry starts the dry-run timer in the given state
func NewDry(initial State) *Dry {
	return &Dry{
		state: initial,
		log:   logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "dry-timer")),
	}
}

func (d *Dry) State() (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, nil
}

func (d *Dry) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == NotRunning {
		d.state = Running
		d.log.Infoln("start")
	}
	return nil
}

func (d *Dry) Split() error {
	d.log.Infoln("split")
	return nil
}

func (d *Dry) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = NotRunning
	d.gameTimePaused = false
	d.log.Infoln("reset")
	return nil
}

func (d *Dry) PauseGameTime() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.gameTimePaused {
		d.gameTimePaused = true
		d.log.Infoln("pause game time")
	}
	return nil
}

func (d *Dry) ResumeGameTime() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gameTimePaused {
		d.gameTimePaused = false
		d.log.Infoln("resume game time")
	}
	return nil
}

func (d *Dry) SetGameTime(t time.Duration) error {
	d.log.Debugln("set game time", FormatGameTime(t))
	return nil
}

// GameTimePaused reports the last pause/resume request
func (d *Dry) GameTimePaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gameTimePaused
}
