// Package trace formats one disassembly line per executed instruction:
// start-pc, consumed bytes, mnemonic, operands, and any store/branch
// suffix.
package trace

import (
	"fmt"
	"strings"
)

// Line is the data a caller (the vm package) supplies for one
// instruction; Format turns it into the fixed text grammar.
type Line struct {
	StartPC     uint32
	Bytes       []uint8
	Mnemonic    string
	Operands    []uint16
	Stores      bool
	StoreVar    uint8
	Branches    bool
	BranchWant  bool
	BranchDelta int32
}

// Format renders a Line as:
//
//	<pc hex> <consumed bytes hex> <mnemonic> <operands hex> [-> var<N>] [?branch(T|F:<offset>)]
func Format(l Line) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%04x ", l.StartPC)

	byteStrs := make([]string, len(l.Bytes))
	for i, b := range l.Bytes {
		byteStrs[i] = fmt.Sprintf("%02x", b)
	}
	fmt.Fprintf(&sb, "%-20s ", strings.Join(byteStrs, ""))

	fmt.Fprintf(&sb, "%-16s", l.Mnemonic)

	for _, o := range l.Operands {
		fmt.Fprintf(&sb, " %04x", o)
	}

	if l.Stores {
		fmt.Fprintf(&sb, " -> var%02x", l.StoreVar)
	}

	if l.Branches {
		polarity := "F"
		if l.BranchWant {
			polarity = "T"
		}
		fmt.Fprintf(&sb, " ?branch(%s:%d)", polarity, l.BranchDelta)
	}

	return sb.String()
}
