package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"loadsplit/process"
	"loadsplit/process/memory_map"
)

const (
	MetadataFile  = "metadata.json"
	MemoryMapFile = "process_memory_map.json"
)

// Metadata describes a saved process image
type Metadata struct {
	PID            process.ProcessID `json:"pid"`
	Name           string            `json:"name"`
	MainModuleBase uint64            `json:"main_module_base"`
	MainModuleSize uint64            `json:"main_module_size"`
}

// BlobFileName names the file holding one region of a dump
func BlobFileName(address, size uint64) string {
	return fmt.Sprintf("blob_0x%x_%d.bin", address, size)
}

// Save writes metadata, the memory map, and one blob per region to dirname
func Save(dirname string, meta Metadata, memoryMap []memory_map.MemoryMapItem, read func(item memory_map.MemoryMapItem) ([]byte, error)) (saved int, err error) {
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	metadataJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, MetadataFile), metadataJSON, 0644); err != nil {
		return 0, fmt.Errorf("failed to write metadata file: %w", err)
	}

	memoryMapJSON, err := json.MarshalIndent(memoryMap, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal memory map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, MemoryMapFile), memoryMapJSON, 0644); err != nil {
		return 0, fmt.Errorf("failed to write memory map file: %w", err)
	}

	for _, region := range memoryMap {
		if !region.IsReadable() {
			continue
		}
		data, err := read(region)
		if err != nil {
			// unreadable regions are simply absent from the dump
			continue
		}
		if err := os.WriteFile(filepath.Join(dirname, BlobFileName(region.Address, region.Size)), data, 0644); err != nil {
			return saved, fmt.Errorf("failed to write blob for region 0x%x: %w", region.Address, err)
		}
		saved++
	}

	return saved, nil
}

// Load reads a dump directory written by Save into a ProcessImage
func Load(dirname string) (*ProcessImage, error) {
	metadataBytes, err := os.ReadFile(filepath.Join(dirname, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(metadataBytes, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	mmBytes, err := os.ReadFile(filepath.Join(dirname, MemoryMapFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}

	var memoryMap []memory_map.MemoryMapItem
	if err := json.Unmarshal(mmBytes, &memoryMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory map: %w", err)
	}

	img := NewProcessImage(meta.PID, meta.Name)
	for _, region := range memoryMap {
		filename := filepath.Join(dirname, BlobFileName(region.Address, region.Size))
		data, err := os.ReadFile(filename)
		if os.IsNotExist(err) {
			continue // region was not readable when saved
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read blob %s: %w", filename, err)
		}
		if err := img.AddRegion(process.ProcessMemoryAddress(region.Address), data, region.Perms); err != nil {
			return nil, err
		}
	}

	if meta.MainModuleBase != 0 {
		img.SetMainModule(process.ProcessMemoryAddress(meta.MainModuleBase), process.ProcessMemorySize(meta.MainModuleSize))
	}

	return img, nil
}
