package signature

import (
	"fmt"

	"loadsplit/process"
)

// DefaultChunkSize bounds a single read while scanning a module
const DefaultChunkSize = process.ProcessMemorySize(1 << 20)

// ScanRange searches [base, base+size) and returns the address of the first match.
// Consecutive reads overlap by the pattern width so a match straddling a
// chunk boundary is still found. Any failed read aborts the scan.
func (s Signature) ScanRange(proc process.Process, base process.ProcessMemoryAddress, size process.ProcessMemorySize) (process.ProcessMemoryAddress, error) {
	return s.ScanRangeChunked(proc, base, size, DefaultChunkSize)
}

// ScanRangeChunked is ScanRange with an explicit read size
func (s Signature) ScanRangeChunked(proc process.Process, base process.ProcessMemoryAddress, size, chunk process.ProcessMemorySize) (process.ProcessMemoryAddress, error) {
	width := process.ProcessMemorySize(s.Len())
	if width == 0 {
		return 0, fmt.Errorf("empty signature")
	}
	if size < width {
		return 0, ErrNotFound
	}
	if chunk < width {
		chunk = width
	}

	end := base.Add(size)
	for cursor := base; cursor.Add(width) <= end; {
		n := chunk
		if remaining := process.ProcessMemorySize(end - cursor); n > remaining {
			n = remaining
		}

		data, err := proc.ReadMemory(cursor, n)
		if err != nil {
			return 0, fmt.Errorf("scan read at %s (%d bytes): %w", cursor.ToString(), n, err)
		}

		if i, ok := s.FindFirst(data); ok {
			return cursor.Add(process.ProcessMemorySize(i)), nil
		}

		if cursor.Add(n) >= end {
			break
		}
		// step so the last width-1 bytes are scanned again with the next chunk
		cursor = cursor.Add(n - width + 1)
	}

	return 0, ErrNotFound
}
