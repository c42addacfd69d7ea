package process_blob

import (
	"testing"

	"loadsplit/process"
	"loadsplit/process/memory_map"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessImageReadMemory(t *testing.T) {
	img := NewProcessImage(42, "game.exe")
	require.NoError(t, img.AddRegion(0x1000, []byte{1, 2, 3, 4, 5, 6, 7, 8}, "r--p"))

	data, err := img.ReadMemory(0x1002, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 5, 6}, data)

	_, err = img.ReadMemory(0x1006, 4)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)

	_, err = img.ReadMemory(0x0, 8)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)

	assert.Equal(t, 3, img.Reads())
}

func TestProcessImageRejectsOverlap(t *testing.T) {
	img := NewProcessImage(1, "game.exe")
	require.NoError(t, img.AddRegion(0x1000, make([]byte, 0x100), "r--p"))
	assert.Error(t, img.AddRegion(0x10F0, make([]byte, 0x20), "r--p"))
	assert.NoError(t, img.AddRegion(0x1100, make([]byte, 0x20), "r--p"))
}

func TestProcessImageWriteAndClose(t *testing.T) {
	img := NewProcessImage(1, "game.exe")
	require.NoError(t, img.AddRegion(0x2000, make([]byte, 16), "rw-p"))
	require.NoError(t, img.WriteMemory(0x2004, []byte{0xAA, 0xBB}))

	v, err := process.Read[uint16](img, 0x2004)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBBAA), v)

	assert.True(t, img.IsOpen())
	img.SetOpen(false)
	assert.False(t, img.IsOpen())

	_, err = img.ReadMemory(0x2000, 1)
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
}

func TestProcessImageMainModule(t *testing.T) {
	img := NewProcessImage(1, "game.exe")

	_, err := img.MainModuleBase()
	assert.ErrorIs(t, err, process.ErrModuleNotFound)

	img.SetMainModule(0x140000000, 0)
	base, err := img.MainModuleBase()
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemoryAddress(0x140000000), base)

	_, err = img.MainModuleSize()
	assert.ErrorIs(t, err, process.ErrModuleNotFound, "zero size means unknown")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	mm := []memory_map.MemoryMapItem{
		{Address: 0x140000000, Size: 4, Perms: "r-xp", Path: "/g/game.exe"},
		{Address: 0x140001000, Size: 2, Perms: "---p", Path: "/g/game.exe"},
	}
	contents := map[uint64][]byte{0x140000000: {0xDE, 0xAD, 0xBE, 0xEF}}

	saved, err := Save(dir, Metadata{PID: 7, Name: "game.exe", MainModuleBase: 0x140000000, MainModuleSize: 0x1002}, mm,
		func(item memory_map.MemoryMapItem) ([]byte, error) {
			return contents[item.Address], nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, saved, "non-readable regions are skipped")

	img, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessID(7), img.GetPID())
	assert.Equal(t, "game.exe", img.Name())
	assert.Len(t, img.GetMemoryMap(), 1)

	size, err := img.MainModuleSize()
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemorySize(0x1002), size)

	v, err := process.Read[uint32](img, 0x140000000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xEFBEADDE), v)
}
