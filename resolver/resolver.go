// Package resolver turns a signature match inside the main module into the
// absolute address of a global the game references RIP-relative.
package resolver

import (
	"context"
	"fmt"
	"time"

	"loadsplit/process"
	"loadsplit/retry"
	"loadsplit/signature"
)

const (
	// WorldSignature matches the `mov rdi, [rip+disp32]` that loads the world pointer
	WorldSignature = "80 7C 24 ?? 00 ?? ?? 48 8B 3D ???????? 48"

	// WorldDisplacementOffset is the distance from the match to the disp32 field
	WorldDisplacementOffset = process.ProcessMemorySize(0xA)

	// DefaultModuleSize covers the shipping executable when the host cannot report its size
	DefaultModuleSize = process.ProcessMemorySize(0x4A57000)
)

// Resolver locates one address per process attachment.
type Resolver struct {
	Signature signature.Signature

	// DisplacementOffset is added to the match address to reach the 4-byte displacement
	DisplacementOffset process.ProcessMemorySize

	// FallbackModuleSize is scanned when the process does not report a module size
	FallbackModuleSize process.ProcessMemorySize
}

// New returns a resolver for the world pointer
func New() *Resolver {
	return &Resolver{
		Signature:          signature.MustParse(WorldSignature),
		DisplacementOffset: WorldDisplacementOffset,
		FallbackModuleSize: DefaultModuleSize,
	}
}

// Resolved is the result of one successful resolution
type Resolved struct {
	Match   process.ProcessMemoryAddress // start of the signature match
	Address process.ProcessMemoryAddress // resolved target
}

// Resolve scans [moduleBase, moduleBase+size) once. Any miss or read failure
// is returned as an error and nothing is kept, so the next attempt starts
// over from the module size lookup.
func (r *Resolver) Resolve(proc process.Process, moduleBase process.ProcessMemoryAddress) (Resolved, error) {
	size, err := proc.MainModuleSize()
	if err != nil || size == 0 {
		if r.FallbackModuleSize == 0 {
			return Resolved{}, fmt.Errorf("module size unavailable: %w", err)
		}
		size = r.FallbackModuleSize
	}

	match, err := r.Signature.ScanRange(proc, moduleBase, size)
	if err != nil {
		return Resolved{}, err
	}

	p0 := match.Add(r.DisplacementOffset)
	rel, err := process.Read[int32](proc, p0)
	if err != nil {
		return Resolved{}, fmt.Errorf("read displacement at %s: %w", p0.ToString(), err)
	}

	// disp32 is relative to the end of the 4-byte field
	target := process.ProcessMemoryAddress(int64(p0) + 4 + int64(rel))

	return Resolved{Match: match, Address: target}, nil
}

// Wait retries Resolve every interval until it succeeds, the process exits,
// or ctx is done.
func (r *Resolver) Wait(ctx context.Context, interval time.Duration, proc process.Process, moduleBase process.ProcessMemoryAddress) (Resolved, error) {
	return retry.Until(ctx, interval, func() (Resolved, error) {
		if !proc.IsOpen() {
			return Resolved{}, retry.Stop(process.ErrProcessNotOpen)
		}
		return r.Resolve(proc, moduleBase)
	})
}
