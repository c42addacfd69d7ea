package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 `json:"Address"` // The starting address of the memory region
	Size    uint64 `json:"Size"`    // The size of the memory region in bytes
	Perms   string `json:"Perms"`   // Permissions (e.g., "r-xp" for read, execute, private)
	Path    string `json:"Path,omitempty"`
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Path)
}

func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + mmItem.Size
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

// ParseMemoryMap parses the /proc/[pid]/maps format.
//
//	00400000-0040b000 r-xp 00000000 08:01 1234   /usr/bin/cat
//
// Lines that do not parse are skipped. The result is sorted by address.
func ParseMemoryMap(r io.Reader) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}

		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil || endAddr < startAddr {
			continue
		}

		item := MemoryMapItem{
			Address: startAddr,
			Size:    endAddr - startAddr,
			Perms:   fields[1],
		}
		// pathname may contain spaces
		if len(fields) >= 6 {
			item.Path = strings.Join(fields[5:], " ")
		}

		memoryMap = append(memoryMap, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})

	return memoryMap, nil
}

// FindRegion returns the region containing addr. memoryMap must be sorted by address.
func FindRegion(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// IsReadableRange reports whether [addr, addr+size) is covered by contiguous readable regions.
func IsReadableRange(addr, size uint64, memoryMap []MemoryMapItem) bool {
	end := addr + size
	for addr < end {
		item := FindRegion(addr, memoryMap)
		if item == nil || !item.IsReadable() {
			return false
		}
		addr = item.End()
	}
	return true
}

// ModuleSpan returns the lowest start and the total span of all regions
// backed by a file whose base name equals name. Matching is case-insensitive
// because Windows executables run under Wine keep their on-disk casing.
func ModuleSpan(name string, memoryMap []MemoryMapItem) (base uint64, size uint64, ok bool) {
	var end uint64
	for _, item := range memoryMap {
		if item.Path == "" || !strings.EqualFold(filepath.Base(item.Path), name) {
			continue
		}
		if !ok || item.Address < base {
			base = item.Address
		}
		if item.End() > end {
			end = item.End()
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return base, end - base, true
}

// ModuleRegions returns the regions backed by the named file.
func ModuleRegions(name string, memoryMap []MemoryMapItem) []MemoryMapItem {
	var out []MemoryMapItem
	for _, item := range memoryMap {
		if item.Path != "" && strings.EqualFold(filepath.Base(item.Path), name) {
			out = append(out, item)
		}
	}
	return out
}
