package process

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PointerSize is the width of a pointer in the 64-bit targets we attach to.
const PointerSize = ProcessMemorySize(8)

// Scalar is a fixed-size value that can be decoded from little-endian memory.
type Scalar interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// ReadPath reads a value of type T at the end of a pointer path.
// It starts at base, adds the first offset, reads a pointer, adds the next offset, reads a pointer, etc.
// The last offset is added to the final pointer, and then T is read from that address.
// If offsets is empty, it reads T from base.
//
// A null intermediate pointer stops the walk with ErrInvalidPointer so the
// zero page is never dereferenced.
func ReadPath[T Scalar](proc Process, base ProcessMemoryAddress, offsets ...ProcessMemorySize) (T, error) {
	var zero T
	currentAddr := base

	for i := 0; i < len(offsets)-1; i++ {
		ptrAddr := currentAddr.Add(offsets[i])

		ptrVal, err := ReadPointer(proc, ptrAddr)
		if err != nil {
			return zero, fmt.Errorf("failed to read pointer at step %d (addr %s): %w", i, ptrAddr.ToString(), err)
		}

		if ptrVal == 0 {
			return zero, fmt.Errorf("pointer at step %d (addr %s) is null: %w", i, ptrAddr.ToString(), ErrInvalidPointer)
		}

		currentAddr = ptrVal
	}

	finalOffset := ProcessMemorySize(0)
	if len(offsets) > 0 {
		finalOffset = offsets[len(offsets)-1]
	}

	finalAddr := currentAddr.Add(finalOffset)

	val, err := Read[T](proc, finalAddr)
	if err != nil {
		return zero, fmt.Errorf("failed to read final value at %s: %w", finalAddr.ToString(), err)
	}

	return val, nil
}

// ReadPointer reads a 64-bit pointer from memory
func ReadPointer(proc Process, addr ProcessMemoryAddress) (ProcessMemoryAddress, error) {
	v, err := Read[uint64](proc, addr)
	if err != nil {
		return 0, err
	}
	return ProcessMemoryAddress(v), nil
}

// Read is a helper to read a single little-endian value of type T from memory
func Read[T Scalar](proc Process, addr ProcessMemoryAddress) (T, error) {
	var t T
	size := ProcessMemorySize(binary.Size(t))

	data, err := proc.ReadMemory(addr, size)
	if err != nil {
		return t, err
	}
	if ProcessMemorySize(len(data)) < size {
		return t, fmt.Errorf("short read at %s: %d of %d bytes", addr.ToString(), len(data), size)
	}

	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &t); err != nil {
		return t, err
	}
	return t, nil
}
