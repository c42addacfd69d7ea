package timer

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultLiveSplitAddress is where the LiveSplit Server component listens
const DefaultLiveSplitAddress = "localhost:16834"

var _ Timer = (*LiveSplit)(nil)

// LiveSplit talks to the LiveSplit Server component over TCP. The connection
// is opened on first use and re-opened by the next command after an I/O error.
type LiveSplit struct {
	addr    string
	timeout time.Duration
	log     *logger.Logger

	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// NewLiveSplit creates a client for addr without connecting
func NewLiveSplit(addr string, timeout time.Duration) *LiveSplit {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &LiveSplit{
		addr:    addr,
		timeout: timeout,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorTeal, coloransi.ColorOrange, "livesplit")),
	}
}

func (l *LiveSplit) State() (State, error) {
	reply, err := l.query("getcurrenttimerphase")
	if err != nil {
		return NotRunning, err
	}
	return ParseState(reply)
}

func (l *LiveSplit) Start() error          { return l.send("starttimer") }
func (l *LiveSplit) Split() error          { return l.send("split") }
func (l *LiveSplit) Reset() error          { return l.send("reset") }
func (l *LiveSplit) PauseGameTime() error  { return l.send("pausegametime") }
func (l *LiveSplit) ResumeGameTime() error { return l.send("unpausegametime") }

func (l *LiveSplit) SetGameTime(d time.Duration) error {
	return l.send("setgametime " + FormatGameTime(d))
}

// Close drops the connection; the next command reconnects
func (l *LiveSplit) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropLocked()
}

func (l *LiveSplit) send(cmd string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeLocked(cmd)
}

func (l *LiveSplit) query(cmd string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeLocked(cmd); err != nil {
		return "", err
	}

	if err := l.conn.SetReadDeadline(time.Now().Add(l.timeout)); err != nil {
		l.dropLocked()
		return "", err
	}
	line, err := l.r.ReadString('\n')
	if err != nil {
		l.dropLocked()
		return "", fmt.Errorf("livesplit: read reply to %q: %w", cmd, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// writeLocked assumes the mutex is held
func (l *LiveSplit) writeLocked(cmd string) error {
	if err := l.connectLocked(); err != nil {
		return err
	}
	return l.rawWriteLocked(cmd)
}

func (l *LiveSplit) rawWriteLocked(cmd string) error {
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.timeout)); err != nil {
		l.dropLocked()
		return err
	}
	if _, err := l.conn.Write([]byte(cmd + "\r\n")); err != nil {
		l.dropLocked()
		return fmt.Errorf("livesplit: send %q: %w", cmd, err)
	}
	return nil
}

func (l *LiveSplit) connectLocked() error {
	if l.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout("tcp", l.addr, l.timeout)
	if err != nil {
		return fmt.Errorf("livesplit: connect %s: %w", l.addr, err)
	}
	l.conn = conn
	l.r = bufio.NewReader(conn)
	l.log.Infoln("Connected to", l.addr)

	// game time is only tracked by LiveSplit once initialised
	return l.rawWriteLocked("initgametime")
}

func (l *LiveSplit) dropLocked() error {
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	l.r = nil
	l.log.Debugln("Disconnected from", l.addr)
	return err
}
