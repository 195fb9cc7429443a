// SPDX-License-Identifier: MPL-2.0

// Package pe classifies Windows executables by instruction width. Only the
// few header fields needed for that decision are read, nothing else of the
// PE format is interpreted.
package pe

import (
	"encoding/binary"
	"io"
	"os"
)

// Bitness is the instruction width of a Windows executable.
type Bitness string

const (
	// Bitness32 marks a PE32 (x86) executable.
	Bitness32 Bitness = "32-bit"
	// Bitness64 marks a PE32+ (x64) executable.
	Bitness64 Bitness = "64-bit"
	// BitnessUnknown marks anything that could not be classified, including
	// unreadable files. Classification never fails hard.
	BitnessUnknown Bitness = "unknown"
)

// IsValid checks if the Bitness is one of the defined values.
func (b Bitness) IsValid() (bool, []error) {
	switch b {
	case Bitness32, Bitness64, BitnessUnknown:
		return true, nil
	default:
		return false, []error{&InvalidBitnessError{Value: string(b)}}
	}
}

// String returns the string representation of the Bitness.
func (b Bitness) String() string { return string(b) }

// InvalidBitnessError is returned by Bitness.IsValid for undefined values.
type InvalidBitnessError struct {
	Value string
}

// Error implements the error interface for InvalidBitnessError.
func (e *InvalidBitnessError) Error() string {
	return "invalid bitness: " + e.Value
}

// Optional header magic values, little-endian, at offset 24 of the PE header.
const (
	magicPE32     = 0x10B
	magicPE32Plus = 0x20B

	dosMagic        = "MZ"
	peSignature     = "PE\x00\x00"
	lfanewOffset    = 60
	optMagicRelOff  = 24
	minHeaderLength = 64
)

// DetectFile opens path and classifies it. Any I/O error yields
// BitnessUnknown, matching the tolerant contract of Detect.
func DetectFile(path string) Bitness {
	f, err := os.Open(path)
	if err != nil {
		return BitnessUnknown
	}
	defer f.Close()

	return Detect(f)
}

// Detect classifies the executable read from r. The reader must support
// seeking from the start; files and bytes.Readers both qualify.
//
// The walk is: "MZ" at offset 0, the 32-bit PE header offset at byte 60,
// "PE\0\0" at that offset, then the optional header magic 24 bytes past it.
// Anything that breaks the walk, truncated file, bad signature, read error,
// classifies as BitnessUnknown rather than an error.
func Detect(r io.ReadSeeker) Bitness {
	head := make([]byte, minHeaderLength)
	if _, err := io.ReadFull(r, head); err != nil {
		return BitnessUnknown
	}

	if string(head[:2]) != dosMagic {
		return BitnessUnknown
	}

	peOffset := int64(binary.LittleEndian.Uint32(head[lfanewOffset:]))

	if _, err := r.Seek(peOffset, io.SeekStart); err != nil {
		return BitnessUnknown
	}

	sig := make([]byte, 4)
	if _, err := io.ReadFull(r, sig); err != nil {
		return BitnessUnknown
	}
	if string(sig) != peSignature {
		return BitnessUnknown
	}

	if _, err := r.Seek(peOffset+optMagicRelOff, io.SeekStart); err != nil {
		return BitnessUnknown
	}

	magic := make([]byte, 2)
	if _, err := io.ReadFull(r, magic); err != nil {
		return BitnessUnknown
	}

	switch binary.LittleEndian.Uint16(magic) {
	case magicPE32:
		return Bitness32
	case magicPE32Plus:
		return Bitness64
	default:
		return BitnessUnknown
	}
}
