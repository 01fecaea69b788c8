package zstring

import (
	"bytes"
	"testing"

	"github.com/goz-interpreter/goz/core"
)

func fixtureCore(t *testing.T, version uint8, extra func([]uint8)) *core.Core {
	t.Helper()
	b := make([]uint8, 0x200)
	b[0] = version
	b[0x18], b[0x19] = 0x00, 0x40 // abbreviation table at 0x40
	if extra != nil {
		extra(b)
	}
	c, err := core.Load(b)
	if err != nil {
		t.Fatalf("core.Load: %v", err)
	}
	return c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := fixtureCore(t, 3, nil)
	alphabets := DefaultAlphabets()

	encoded := Encode([]rune("ab"), c.Version, alphabets)
	if len(encoded) != 4 {
		t.Fatalf("expected 2 packed words (4 bytes), got %d", len(encoded))
	}

	copy(c.ReadSlice(0x100, 0x100+uint32(len(encoded))), encoded)
	decoded, bytesRead := Decode(c, alphabets, nil, 0x100, false)

	if decoded != "ab" {
		t.Fatalf("decoded = %q, want %q", decoded, "ab")
	}
	if bytesRead != uint32(len(encoded)) {
		t.Fatalf("bytesRead = %d, want %d", bytesRead, len(encoded))
	}

	reEncoded := Encode([]rune(decoded), c.Version, alphabets)
	if !bytes.Equal(reEncoded, encoded) {
		t.Fatalf("re-encode mismatch: got %x, want %x", reEncoded, encoded)
	}
}

func TestEncodeEvenByteCountAndTerminator(t *testing.T) {
	c := fixtureCore(t, 3, nil)
	encoded := Encode([]rune("xyz"), c.Version, DefaultAlphabets())
	if len(encoded)%2 != 0 {
		t.Fatalf("encoded byte count must be even, got %d", len(encoded))
	}
	lastWord := uint16(encoded[len(encoded)-2])<<8 | uint16(encoded[len(encoded)-1])
	if lastWord&0x8000 == 0 {
		t.Fatalf("final word must carry the last-word bit")
	}
}

func TestDecodeAbbreviation(t *testing.T) {
	c := fixtureCore(t, 3, func(b []uint8) {
		// Abbreviation 0 (z=1,x=0) points (packed, *2) at string address 0x120.
		b[0x40], b[0x41] = 0x00, 0x90 // entry word = 0x0090 -> byte addr 0x120
	})
	alphabets := DefaultAlphabets()

	abbrevBytes := Encode([]rune("hi"), c.Version, alphabets)
	copy(c.ReadSlice(0x120, 0x120+uint32(len(abbrevBytes))), abbrevBytes)

	// Build a string "a<abbrev0>" : z-char 'a' then abbreviation ref z=1,x=0.
	word := uint16(6)<<10 | uint16(1)<<5 | uint16(0) | 0x8000
	c.WriteHalfWord(0x100, word)

	decoded, _ := Decode(c, alphabets, nil, 0x100, true)
	if decoded != "ahi" {
		t.Fatalf("decoded = %q, want %q", decoded, "ahi")
	}
}

func TestDecodeZsciiEscape(t *testing.T) {
	c := fixtureCore(t, 3, nil)
	alphabets := DefaultAlphabets()

	// shift-A2(5), escape(6), hi=2, lo=1 -> code = 2<<5|1 = 65 ('A'), then pad.
	z := []uint8{5, 6, 2, 1, 5, 5}
	word0 := uint16(z[0])<<10 | uint16(z[1])<<5 | uint16(z[2])
	word1 := uint16(z[3])<<10 | uint16(z[4])<<5 | uint16(z[5]) | 0x8000
	c.WriteHalfWord(0x100, word0)
	c.WriteHalfWord(0x102, word1)

	decoded, bytesRead := Decode(c, alphabets, nil, 0x100, false)
	if decoded != "A" {
		t.Fatalf("decoded = %q, want %q", decoded, "A")
	}
	if bytesRead != 4 {
		t.Fatalf("bytesRead = %d, want 4", bytesRead)
	}
}
