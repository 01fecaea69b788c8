// Package ztable implements the table opcodes: scan_table, copy_table
// and print_table.
package ztable

import (
	"strings"

	"github.com/goz-interpreter/goz/core"
)

// PrintTable writes a rectangular block of ASCII text from memory: the
// table is width bytes per row, with skip extra bytes of stride
// between rows, stopping after height rows.
func PrintTable(c *core.Core, baddr uint32, width uint16, height uint16, skip uint16) string {
	s := strings.Builder{}

	for row := uint16(0); row < height; row++ {
		if row != 0 {
			s.WriteByte('\n')
		}
		rowStart := baddr + uint32(row)*uint32(uint16(width)+skip)
		for col := uint16(0); col < width; col++ {
			b, _ := c.ReadByte(rowStart + uint32(col))
			s.WriteByte(b)
		}
	}

	return s.String()
}

// ScanTable searches a table of length fields of 1 or 2 bytes each
// (per form's top bit) for test, returning the matching field's
// address or 0 if not found.
func ScanTable(c *core.Core, test uint16, baddr uint32, length uint16, form uint16) uint32 {
	ptr := baddr
	fieldSize := form & 0b0111_1111
	checkWord := form&0b1000_0000 != 0
	if fieldSize == 0 {
		return 0
	}

	for i := uint16(0); i < length; i++ {
		if checkWord {
			v, ok := c.ReadHalfWord(ptr)
			if ok && v == test {
				return ptr
			}
		} else {
			v, ok := c.ReadByte(ptr)
			if ok && uint16(v) == test {
				return ptr
			}
		}
		ptr += uint32(fieldSize)
	}

	return 0
}

// CopyTable copies size bytes from first to second. A negative size
// permits overlap, copying low-to-high and allowing the destination to
// clobber the source mid-copy (the story file's own responsibility to
// use when it knows the regions overlap in that direction); when
// second is 0, the first |size| bytes of first are zeroed instead.
func CopyTable(c *core.Core, first uint16, second uint16, size int16) {
	sizeAbs := uint16(size)
	if size < 0 {
		sizeAbs = uint16(-int32(size))
	}

	switch {
	case second == 0:
		for i := uint16(0); i < sizeAbs; i++ {
			c.WriteByte(uint32(first)+uint32(i), 0)
		}

	case size >= 0:
		tmp := make([]uint8, sizeAbs)
		copy(tmp, c.ReadSlice(uint32(first), uint32(first)+uint32(sizeAbs)))
		for i, b := range tmp {
			c.WriteByte(uint32(second)+uint32(i), b)
		}

	default:
		for i := uint16(0); i < sizeAbs; i++ {
			b, _ := c.ReadByte(uint32(first) + uint32(i))
			c.WriteByte(uint32(second)+uint32(i), b)
		}
	}
}
