// Package config collects the autosplitter settings from defaults, a .env
// file, the environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"loadsplit/process"
	"loadsplit/resolver"
	"loadsplit/signature"
	"loadsplit/timer"

	"github.com/joho/godotenv"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid settings")

const envPrefix = "LOADSPLIT_"

// Settings is everything the monitor needs to attach and poll
type Settings struct {
	ProcessNames       []string
	Signature          string
	DisplacementOffset process.ProcessMemorySize
	LoadStatePath      []process.ProcessMemorySize
	ModuleSize         process.ProcessMemorySize
	TickInterval       time.Duration
	LiveSplitAddress   string
	LiveSplitTimeout   time.Duration
	DryRun             bool
	Verbose            bool
}

// Default returns the settings for the Post Mouse shipping build
func Default() Settings {
	return Settings{
		ProcessNames:       []string{"PostMouse-Win64-Shipping.exe"},
		Signature:          resolver.WorldSignature,
		DisplacementOffset: resolver.WorldDisplacementOffset,
		LoadStatePath:      []process.ProcessMemorySize{0x0, 0x180, 0x38, 0x0, 0x30, 0x250, 0x350},
		ModuleSize:         resolver.DefaultModuleSize,
		TickInterval:       time.Second / 120,
		LiveSplitAddress:   timer.DefaultLiveSplitAddress,
		LiveSplitTimeout:   time.Second,
	}
}

// LoadEnvFile overlays values from a .env file without overriding variables
// already present in the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays LOADSPLIT_* variables found through lookup
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("PROCESS_NAMES"); ok {
		s.ProcessNames = SplitList(v)
	}
	if v, ok := get("SIGNATURE"); ok {
		s.Signature = v
	}
	if v, ok := get("DISPLACEMENT_OFFSET"); ok {
		n, err := ParseNumber(v)
		if err != nil {
			return fmt.Errorf("%sDISPLACEMENT_OFFSET: %w", envPrefix, err)
		}
		s.DisplacementOffset = process.ProcessMemorySize(n)
	}
	if v, ok := get("LOAD_STATE_PATH"); ok {
		path, err := ParsePath(v)
		if err != nil {
			return fmt.Errorf("%sLOAD_STATE_PATH: %w", envPrefix, err)
		}
		s.LoadStatePath = path
	}
	if v, ok := get("MODULE_SIZE"); ok {
		n, err := ParseNumber(v)
		if err != nil {
			return fmt.Errorf("%sMODULE_SIZE: %w", envPrefix, err)
		}
		s.ModuleSize = process.ProcessMemorySize(n)
	}
	if v, ok := get("TICK_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTICK_INTERVAL: %w", envPrefix, err)
		}
		s.TickInterval = d
	}
	if v, ok := get("LIVESPLIT_ADDRESS"); ok {
		s.LiveSplitAddress = v
	}
	if v, ok := get("LIVESPLIT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sLIVESPLIT_TIMEOUT: %w", envPrefix, err)
		}
		s.LiveSplitTimeout = d
	}
	if v, ok := get("DRY_RUN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDRY_RUN: %w", envPrefix, err)
		}
		s.DryRun = b
	}
	if v, ok := get("VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sVERBOSE: %w", envPrefix, err)
		}
		s.Verbose = b
	}
	return nil
}

// Validate reports the first unusable value
func (s Settings) Validate() error {
	if len(s.ProcessNames) == 0 {
		return fmt.Errorf("%w: no process names", ErrInvalid)
	}
	for _, name := range s.ProcessNames {
		if name == "" {
			return fmt.Errorf("%w: empty process name", ErrInvalid)
		}
	}
	if _, err := signature.Parse(s.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(s.LoadStatePath) == 0 {
		return fmt.Errorf("%w: empty load state path", ErrInvalid)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalid)
	}
	if !s.DryRun && s.LiveSplitAddress == "" {
		return fmt.Errorf("%w: no LiveSplit address", ErrInvalid)
	}
	return nil
}

// Resolver builds the address resolver these settings describe
func (s Settings) Resolver() (*resolver.Resolver, error) {
	sig, err := signature.Parse(s.Signature)
	if err != nil {
		return nil, err
	}
	return &resolver.Resolver{
		Signature:          sig,
		DisplacementOffset: s.DisplacementOffset,
		FallbackModuleSize: s.ModuleSize,
	}, nil
}

// SplitList splits a comma separated list, dropping blanks
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseNumber accepts decimal or 0x-prefixed hex
func ParseNumber(v string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(v), 0, 64)
}

// ParsePath parses "0x0,0x180,0x38" into offsets
func ParsePath(v string) ([]process.ProcessMemorySize, error) {
	var out []process.ProcessMemorySize
	for _, part := range SplitList(v) {
		n, err := ParseNumber(part)
		if err != nil {
			return nil, err
		}
		out = append(out, process.ProcessMemorySize(n))
	}
	return out, nil
}

// FormatPath is the inverse of ParsePath
func FormatPath(path []process.ProcessMemorySize) string {
	parts := make([]string, len(path))
	for i, off := range path {
		parts[i] = fmt.Sprintf("0x%X", uint64(off))
	}
	return strings.Join(parts, ",")
}
