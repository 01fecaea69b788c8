package ztable

import (
	"testing"

	"github.com/goz-interpreter/goz/core"
)

func fixtureCore(t *testing.T) *core.Core {
	t.Helper()
	b := make([]uint8, 0x400)
	b[0] = 5
	c, err := core.Load(b)
	if err != nil {
		t.Fatalf("core.Load: %v", err)
	}
	return c
}

func TestScanTableByteField(t *testing.T) {
	c := fixtureCore(t)
	base := uint32(0x100)
	values := []uint8{1, 2, 3, 42, 5}
	for i, v := range values {
		c.WriteByte(base+uint32(i), v)
	}

	addr := ScanTable(c, 42, base, uint16(len(values)), 1)
	if addr != base+3 {
		t.Fatalf("ScanTable found %x, want %x", addr, base+3)
	}

	if a := ScanTable(c, 99, base, uint16(len(values)), 1); a != 0 {
		t.Fatalf("ScanTable for missing value should return 0, got %x", a)
	}
}

func TestScanTableWordField(t *testing.T) {
	c := fixtureCore(t)
	base := uint32(0x100)
	c.WriteHalfWord(base, 0x1111)
	c.WriteHalfWord(base+2, 0xBEEF)
	c.WriteHalfWord(base+4, 0x2222)

	addr := ScanTable(c, 0xBEEF, base, 3, 0b1000_0010)
	if addr != base+2 {
		t.Fatalf("ScanTable word form found %x, want %x", addr, base+2)
	}
}

func TestCopyTableNonOverlapping(t *testing.T) {
	c := fixtureCore(t)
	first, second := uint32(0x100), uint32(0x200)
	for i := 0; i < 4; i++ {
		c.WriteByte(first+uint32(i), uint8(i+1))
	}

	CopyTable(c, uint16(first), uint16(second), 4)

	for i := 0; i < 4; i++ {
		got, _ := c.ReadByte(second + uint32(i))
		if got != uint8(i+1) {
			t.Fatalf("byte %d = %d, want %d", i, got, i+1)
		}
	}
}

func TestCopyTableZeroesWhenSecondIsZero(t *testing.T) {
	c := fixtureCore(t)
	first := uint32(0x100)
	for i := 0; i < 4; i++ {
		c.WriteByte(first+uint32(i), 0xFF)
	}

	CopyTable(c, uint16(first), 0, 4)

	for i := 0; i < 4; i++ {
		got, _ := c.ReadByte(first + uint32(i))
		if got != 0 {
			t.Fatalf("byte %d = %d, want 0", i, got)
		}
	}
}

func TestPrintTableGrid(t *testing.T) {
	c := fixtureCore(t)
	base := uint32(0x100)
	rows := [][]byte{[]byte("ab"), []byte("cd")}
	stride := uint32(2)
	for r, row := range rows {
		for i, ch := range row {
			c.WriteByte(base+uint32(r)*stride+uint32(i), ch)
		}
	}

	got := PrintTable(c, base, 2, 2, 0)
	want := "ab\ncd"
	if got != want {
		t.Fatalf("PrintTable = %q, want %q", got, want)
	}
}
