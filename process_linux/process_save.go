//go:build linux

package process_linux

import (
	"fmt"

	"loadsplit/process"
	"loadsplit/process/memory_map"
	"loadsplit/process_blob"
)

// maxSavedRegion skips regions too large to be useful in a dump
const maxSavedRegion = 256 * 1024 * 1024

// SaveMainModule writes every readable region of the main module to dirname
// in the layout process_blob.Load reads back
func (p *LinuxProcess) SaveMainModule(dirname string) (int, error) {
	base, size, err := p.mainModule()
	if err != nil {
		return 0, err
	}

	mm, err := p.GetMemoryMap()
	if err != nil {
		return 0, err
	}

	regions := memory_map.ModuleRegions(p.name, mm)
	if len(regions) == 0 {
		// matched through /proc/<pid>/exe instead
		for _, item := range mm {
			if item.Address >= uint64(base) && item.End() <= uint64(base)+uint64(size) {
				regions = append(regions, item)
			}
		}
	}

	p.log.Infoln("Saving", len(regions), "module regions to", dirname)

	meta := process_blob.Metadata{
		PID:            p.pid,
		Name:           p.name,
		MainModuleBase: uint64(base),
		MainModuleSize: uint64(size),
	}

	saved, err := process_blob.Save(dirname, meta, regions, func(item memory_map.MemoryMapItem) ([]byte, error) {
		if item.Size > maxSavedRegion {
			return nil, fmt.Errorf("region 0x%x too large: %d bytes", item.Address, item.Size)
		}
		return p.ReadMemory(process.ProcessMemoryAddress(item.Address), process.ProcessMemorySize(item.Size))
	})
	if err != nil {
		return saved, err
	}

	p.log.Infoln("Module dump saved:", saved, "of", len(regions), "regions")
	return saved, nil
}
