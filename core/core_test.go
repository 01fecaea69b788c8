package core

import "testing"

func headerFixture() []uint8 {
	b := make([]uint8, 128)
	b[0x00] = 3
	b[0x02], b[0x03] = 0x00, 0x01
	b[0x04], b[0x05] = 0x00, 0x80
	b[0x06], b[0x07] = 0x01, 0x00
	b[0x08], b[0x09] = 0x02, 0x00
	b[0x0a], b[0x0b] = 0x03, 0x00
	b[0x0c], b[0x0d] = 0x04, 0x00
	b[0x0e], b[0x0f] = 0x00, 0x80
	copy(b[0x12:0x18], "240101")
	b[0x18], b[0x19] = 0x05, 0x00
	b[0x1c], b[0x1d] = 0x12, 0x34
	return b
}

func TestLoadHeader(t *testing.T) {
	c, err := Load(headerFixture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"version", c.Version, uint8(3)},
		{"release", c.ReleaseNumber, uint16(1)},
		{"high memory base", c.HighMemoryBase, uint16(0x0080)},
		{"initial pc", c.FirstInstruction, uint16(0x0100)},
		{"dictionary", c.DictionaryBase, uint16(0x0200)},
		{"object table", c.ObjectTableBase, uint16(0x0300)},
		{"globals", c.GlobalVariableBase, uint16(0x0400)},
		{"static memory", c.StaticMemoryBase, uint16(0x0080)},
		{"serial", c.Serial, "240101"},
		{"abbreviations", c.AbbreviationTableBase, uint16(0x0500)},
		{"checksum", c.FileChecksum, uint16(0x1234)},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadRejectsShortFile(t *testing.T) {
	if _, err := Load(make([]uint8, 10)); err == nil {
		t.Fatal("expected error for short file")
	}
}

func TestLoadRejectsBadVersion(t *testing.T) {
	b := headerFixture()
	b[0] = 42
	if _, err := Load(b); err == nil {
		t.Fatal("expected error for bad version")
	}
}

func TestReadWriteBounds(t *testing.T) {
	c, _ := Load(headerFixture())

	if ok := c.WriteByte(c.MemoryLength(), 1); ok {
		t.Error("write out of bounds should fail")
	}
	if _, ok := c.ReadByte(c.MemoryLength()); ok {
		t.Error("read out of bounds should fail")
	}

	c.WriteHalfWord(0x40, 0xBEEF)
	if v, ok := c.ReadHalfWord(0x40); !ok || v != 0xBEEF {
		t.Errorf("loadw/storew roundtrip failed: got %x", v)
	}
}

func TestPackedAddressMultiplier(t *testing.T) {
	for _, tc := range []struct {
		version uint8
		want    uint32
	}{
		{3, 2}, {5, 4}, {8, 8},
	} {
		b := headerFixture()
		b[0] = tc.version
		c, err := Load(b)
		if err != nil {
			t.Fatalf("version %d: %v", tc.version, err)
		}
		if got := c.PackedAddressMultiplier(); got != tc.want {
			t.Errorf("version %d: multiplier = %d, want %d", tc.version, got, tc.want)
		}
	}
}
