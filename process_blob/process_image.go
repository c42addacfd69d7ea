// Package process_blob provides a process backed by an in-memory image:
// either regions loaded from a dump directory or regions assembled by hand.
package process_blob

import (
	"fmt"
	"sort"
	"sync"

	"loadsplit/process"
	"loadsplit/process/memory_map"
)

var _ process.Process = (*ProcessImage)(nil)

// ProcessImage implements process.Process over a set of memory regions
type ProcessImage struct {
	mu sync.Mutex

	pid        process.ProcessID
	name       string
	open       bool
	moduleBase process.ProcessMemoryAddress
	moduleSize process.ProcessMemorySize
	hasModule  bool
	hasSize    bool

	memoryMap []memory_map.MemoryMapItem
	blobs     map[uint64][]byte // region address -> data
	reads     int
}

// NewProcessImage creates an open, empty image
func NewProcessImage(pid process.ProcessID, name string) *ProcessImage {
	return &ProcessImage{
		pid:   pid,
		name:  name,
		open:  true,
		blobs: make(map[uint64][]byte),
	}
}

// AddRegion maps data at addr. Regions must not overlap.
func (p *ProcessImage) AddRegion(addr process.ProcessMemoryAddress, data []byte, perms string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	end := uint64(addr) + uint64(len(data))
	for _, item := range p.memoryMap {
		if uint64(addr) < item.End() && item.Address < end {
			return fmt.Errorf("region 0x%x-0x%x overlaps %s", uint64(addr), end, item.String())
		}
	}

	p.memoryMap = append(p.memoryMap, memory_map.MemoryMapItem{
		Address: uint64(addr),
		Size:    uint64(len(data)),
		Perms:   perms,
	})
	sort.Slice(p.memoryMap, func(i, j int) bool {
		return p.memoryMap[i].Address < p.memoryMap[j].Address
	})

	buf := make([]byte, len(data))
	copy(buf, data)
	p.blobs[uint64(addr)] = buf
	return nil
}

// SetMainModule publishes the main module. A zero size leaves the size
// unknown, the way some hosts fail to report it.
func (p *ProcessImage) SetMainModule(base process.ProcessMemoryAddress, size process.ProcessMemorySize) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moduleBase = base
	p.moduleSize = size
	p.hasModule = true
	p.hasSize = size != 0
}

// WriteMemory overwrites bytes inside an existing region
func (p *ProcessImage) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf, offset, err := p.locate(addr, process.ProcessMemorySize(len(data)))
	if err != nil {
		return err
	}
	copy(buf[offset:], data)
	return nil
}

// SetOpen flips the liveness flag, simulating the target exiting
func (p *ProcessImage) SetOpen(open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = open
}

// Reads returns how many ReadMemory calls were served
func (p *ProcessImage) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

func (p *ProcessImage) GetPID() process.ProcessID {
	return p.pid
}

func (p *ProcessImage) Name() string {
	return p.name
}

func (p *ProcessImage) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *ProcessImage) MainModuleBase() (process.ProcessMemoryAddress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasModule {
		return 0, process.ErrModuleNotFound
	}
	return p.moduleBase, nil
}

func (p *ProcessImage) MainModuleSize() (process.ProcessMemorySize, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasSize {
		return 0, process.ErrModuleNotFound
	}
	return p.moduleSize, nil
}

// GetMemoryMap returns a copy of the region list
func (p *ProcessImage) GetMemoryMap() []memory_map.MemoryMapItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]memory_map.MemoryMapItem, len(p.memoryMap))
	copy(result, p.memoryMap)
	return result
}

func (p *ProcessImage) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reads++
	if !p.open {
		return nil, process.ErrProcessNotOpen
	}

	buf, offset, err := p.locate(addr, size)
	if err != nil {
		return nil, err
	}

	result := make([]byte, size)
	copy(result, buf[offset:offset+uint64(size)])
	return result, nil
}

func (p *ProcessImage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

// locate assumes the mutex is held
func (p *ProcessImage) locate(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, uint64, error) {
	region := memory_map.FindRegion(uint64(addr), p.memoryMap)
	if region == nil {
		return nil, 0, process.ErrAddressNotMapped
	}

	data, ok := p.blobs[region.Address]
	if !ok {
		return nil, 0, fmt.Errorf("no data for region 0x%x: %w", region.Address, process.ErrAddressNotMapped)
	}

	offset := uint64(addr) - region.Address
	if offset+uint64(size) > uint64(len(data)) {
		return nil, 0, fmt.Errorf("read of %d bytes at %s exceeds region 0x%x: %w", size, addr.ToString(), region.Address, process.ErrAddressNotMapped)
	}

	return data, offset, nil
}
