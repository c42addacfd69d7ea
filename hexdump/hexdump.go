// Package hexdump renders memory around a resolved address with the matched
// bytes highlighted.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Options controls the layout of a dump
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// StartAddress is printed as the address of data[0]
	StartAddress uint64

	// HighlightStart and HighlightLen mark a byte range of data
	HighlightStart int
	HighlightLen   int

	// Color enables ANSI colors
	Color bool
}

// DefaultOptions returns 16 bytes per line with colors enabled
func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		Color:        true,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}

	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := min(offset+options.BytesPerLine, len(data))
		formatLine(writer, data[offset:end], offset, options)
	}
}

func (o Options) highlighted(i int) bool {
	return o.HighlightLen > 0 && i >= o.HighlightStart && i < o.HighlightStart+o.HighlightLen
}

func (o Options) paint(fg coloransi.ColorCode, highlight bool, s string) string {
	if !o.Color {
		return s
	}
	if highlight {
		return coloransi.Color(coloransi.Yellow, coloransi.Black, s)
	}
	return coloransi.Foreground(fg, s)
}

// formatLine formats a single line of the hex dump
func formatLine(writer io.Writer, data []byte, offset int, options Options) {
	addr := fmt.Sprintf("%016x", options.StartAddress+uint64(offset))
	fmt.Fprint(writer, options.paint(coloransi.Cyan, false, addr), "  ")

	hexParts := make([]string, 0, options.BytesPerLine)
	for i, b := range data {
		fg := coloransi.Green
		if b == 0 {
			fg = coloransi.BrightBlack
		}
		hexParts = append(hexParts, options.paint(fg, options.highlighted(offset+i), fmt.Sprintf("%02x", b)))
	}
	fmt.Fprint(writer, strings.Join(hexParts, " "))

	// keep the ASCII column aligned on a short last line
	if missing := options.BytesPerLine - len(data); missing > 0 {
		fmt.Fprint(writer, strings.Repeat(" ", missing*3))
	}

	fmt.Fprint(writer, " | ")
	for i, b := range data {
		c, fg := ".", coloransi.BrightBlack
		if b >= 0x20 && b < 0x7f {
			c, fg = string(b), coloransi.White
		}
		fmt.Fprint(writer, options.paint(fg, options.highlighted(offset+i), c))
	}
	fmt.Fprintln(writer)
}
