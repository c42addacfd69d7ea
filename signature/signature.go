// Package signature finds byte patterns with wildcards inside a process's memory.
package signature

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"loadsplit/process"
)

// ErrNotFound is returned when a scan reaches the end of the range without a match
var ErrNotFound = errors.New("signature not found")

// Signature is an immutable pattern of exact bytes and wildcards
type Signature struct {
	aob  process.AOB
	text string
}

// Parse reads a pattern such as "80 7C 24 ?? 00 ?? ?? 48 8B 3D ???????? 48".
// Tokens are separated by spaces or commas; each token is one or more
// two-character cells, each either a hex byte or "??". A lone "?" is one
// wildcard.
func Parse(text string) (Signature, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	var pattern, mask []byte
	for _, part := range parts {
		if part == "?" {
			pattern = append(pattern, 0)
			mask = append(mask, 0)
			continue
		}
		if len(part)%2 != 0 {
			return Signature{}, fmt.Errorf("invalid token %q: odd number of characters", part)
		}
		for i := 0; i < len(part); i += 2 {
			cell := part[i : i+2]
			if cell == "??" {
				pattern = append(pattern, 0)
				mask = append(mask, 0)
				continue
			}
			val, err := strconv.ParseUint(cell, 16, 8)
			if err != nil {
				return Signature{}, fmt.Errorf("invalid hex byte %q in token %q", cell, part)
			}
			pattern = append(pattern, byte(val))
			mask = append(mask, 0xFF)
		}
	}

	aob, err := process.NewAOB(pattern, mask)
	if err != nil {
		return Signature{}, fmt.Errorf("invalid signature %q: %w", text, err)
	}

	return Signature{aob: aob, text: text}, nil
}

// MustParse is Parse for compile-time constants
func MustParse(text string) Signature {
	sig, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return sig
}

// Len returns the pattern width in bytes
func (s Signature) Len() int {
	return s.aob.Len()
}

// AOB returns the underlying pattern and mask
func (s Signature) AOB() process.AOB {
	return s.aob
}

// String formats the pattern with one cell per byte
func (s Signature) String() string {
	var sb strings.Builder
	for i := range s.aob.Pattern {
		if i > 0 {
			sb.WriteString(" ")
		}
		if s.aob.Mask[i] == 0 {
			sb.WriteString("??")
		} else {
			fmt.Fprintf(&sb, "%02X", s.aob.Pattern[i])
		}
	}
	return sb.String()
}

// FindFirst returns the lowest offset in data where the pattern matches
func (s Signature) FindFirst(data []byte) (int, bool) {
	for i := 0; i+s.aob.Len() <= len(data); i++ {
		if s.aob.MatchAt(data, i) {
			return i, true
		}
	}
	return 0, false
}
