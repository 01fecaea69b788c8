// Package zstring implements the ZSCII text codec: three z-characters
// packed per 16-bit word, a shift-based alphabet state machine,
// abbreviation expansion and the 10-bit ZSCII escape.
package zstring

import (
	"encoding/binary"
	"strings"

	"github.com/goz-interpreter/goz/core"
)

// Alphabets holds the three 26/25-character lookup tables used to map
// z-characters 6..31 onto printable characters. A0 and A1 are indexed
// by (zchar-6); A2 is indexed by (zchar-7) since z-char 6 in A2 is
// reserved to introduce the 10-bit ZSCII escape rather than naming a
// character of its own.
type Alphabets struct {
	A0 [26]byte
	A1 [26]byte
	A2 [25]byte
}

var defaultA0 = [26]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var defaultA1 = [26]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}
var defaultA2 = [25]byte{'\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

// DefaultAlphabets returns the standard A0/A1/A2 tables used when a
// story file declares no custom alphabet table.
func DefaultAlphabets() *Alphabets {
	return &Alphabets{A0: defaultA0, A1: defaultA1, A2: defaultA2}
}

// LoadAlphabets reads the optional custom alphabet table (v5+, header
// word 0x34): 78 bytes holding the new A0, A1 and A2 in turn, 26 bytes
// each. A2 positions 0 and 1 (z-char 6 and 7) keep their standard
// meaning - escape introducer and newline - even when a custom table is
// present, per the Z-machine standard.
func LoadAlphabets(c *core.Core) *Alphabets {
	if c.Version < 5 || c.AlphabetTableBase == 0 {
		return DefaultAlphabets()
	}

	a := &Alphabets{}
	base := uint32(c.AlphabetTableBase)
	for i := 0; i < 26; i++ {
		b, _ := c.ReadByte(base + uint32(i))
		a.A0[i] = b
	}
	for i := 0; i < 26; i++ {
		b, _ := c.ReadByte(base + 26 + uint32(i))
		a.A1[i] = b
	}
	a.A2[0] = '\n'
	for i := 1; i < 25; i++ {
		b, _ := c.ReadByte(base + 52 + uint32(i+1))
		a.A2[i] = b
	}
	return a
}

// UnicodeTable maps Unicode runes to ZSCII codes 155..251.
type UnicodeTable map[rune]uint8

var defaultUnicodeTable = UnicodeTable{
	'ä': 155, 'ö': 156, 'ü': 157, 'Ä': 158, 'Ö': 159, 'Ü': 160, 'ß': 161,
	'»': 162, '«': 163, 'ë': 164, 'ï': 165, 'ÿ': 166, 'Ë': 167, 'Ï': 168,
	'á': 169, 'é': 170, 'í': 171, 'ó': 172, 'ú': 173, 'ý': 174, 'Á': 175,
	'É': 176, 'Í': 177, 'Ó': 178, 'Ú': 179, 'Ý': 180, 'à': 181, 'è': 182,
	'ì': 183, 'ò': 184, 'ù': 185, 'À': 186, 'È': 187, 'Ì': 188, 'Ò': 189,
	'Ù': 190, 'â': 191, 'ê': 192, 'î': 193, 'ô': 194, 'û': 195, 'Â': 196,
	'Ê': 197, 'Î': 198, 'Ô': 199, 'Û': 200, 'å': 201, 'Å': 202, 'ø': 203,
	'Ø': 204, 'ã': 205, 'ñ': 206, 'õ': 207, 'Ã': 208, 'Ñ': 209, 'Õ': 210,
	'æ': 211, 'Æ': 212, 'ç': 213, 'Ç': 214, 'þ': 215, 'ð': 216, 'Þ': 217,
	'Ð': 218, '£': 219, 'œ': 220, 'Œ': 221, '¡': 222, '¿': 223,
}

// LoadUnicodeTable reads the optional unicode-translation extension
// table (extension word 3), falling back to the default table.
func LoadUnicodeTable(c *core.Core) UnicodeTable {
	if c.ExtensionTableBase == 0 {
		return defaultUnicodeTable
	}
	countWord, ok := c.ReadHalfWord(uint32(c.ExtensionTableBase))
	if !ok || countWord < 3 {
		return defaultUnicodeTable
	}
	tableAddr, ok := c.ReadHalfWord(uint32(c.ExtensionTableBase) + 6)
	if !ok || tableAddr == 0 {
		return defaultUnicodeTable
	}
	n, ok := c.ReadByte(uint32(tableAddr))
	if !ok {
		return defaultUnicodeTable
	}
	table := make(UnicodeTable, n)
	for i := 0; i < int(n); i++ {
		r, ok := c.ReadHalfWord(uint32(tableAddr) + 1 + uint32(i)*2)
		if !ok {
			break
		}
		table[rune(r)] = uint8(155 + i)
	}
	return table
}

func (u UnicodeTable) zsciiToRune(code uint8) rune {
	for r, zc := range u {
		if zc == code {
			return r
		}
	}
	return rune(code)
}

func readZChars(c *core.Core, address uint32) ([]uint8, uint32) {
	var zchars []uint8
	ptr := address
	for {
		word := c.MustReadHalfWord(ptr)
		ptr += 2
		zchars = append(zchars, uint8((word>>10)&0b11111), uint8((word>>5)&0b11111), uint8(word&0b11111))
		if word&0x8000 != 0 {
			break
		}
	}
	return zchars, ptr - address
}

// Decode decodes the ZSCII string starting at address and returns the
// decoded text plus the number of memory bytes consumed (always even,
// the final word carrying the high "last word" bit).
//
// allowAbbreviations must be false while decoding the body of an
// abbreviation string - abbreviations never nest further than one
// level.
func Decode(c *core.Core, alphabets *Alphabets, unicode UnicodeTable, address uint32, allowAbbreviations bool) (string, uint32) {
	zchars, bytesConsumed := readZChars(c, address)
	return decodeZChars(c, alphabets, unicode, zchars, allowAbbreviations), bytesConsumed
}

func decodeZChars(c *core.Core, alphabets *Alphabets, unicode UnicodeTable, zchars []uint8, allowAbbreviations bool) string {
	var sb strings.Builder

	const (
		noShift = 0
		shiftA1 = 1
		shiftA2 = 2
	)
	oneShot := noShift

	i := 0
	for i < len(zchars) {
		z := zchars[i]

		switch {
		case z == 0:
			sb.WriteByte(' ')
			oneShot = noShift
			i++

		case z >= 1 && z <= 3:
			if !allowAbbreviations || i+1 >= len(zchars) {
				// Malformed or (by design) non-nesting abbreviation reference; skip.
				i++
				continue
			}
			x := zchars[i+1]
			abbreviationIx := uint32(32*(int(z)-1) + int(x))
			entryAddr := uint32(c.AbbreviationTableBase) + abbreviationIx*2
			packedStr, ok := c.ReadHalfWord(entryAddr)
			if ok {
				strAddr := uint32(packedStr) * 2
				sub, _ := Decode(c, alphabets, unicode, strAddr, false)
				sb.WriteString(sub)
			}
			oneShot = noShift
			i++
			i++

		case z == 4:
			oneShot = shiftA1
			i++

		case z == 5:
			oneShot = shiftA2
			i++
			// ZSCII escape: z-char 6 read while the effective alphabet is A2.
			if i < len(zchars) && zchars[i] == 6 {
				if i+2 < len(zchars) {
					hi := zchars[i+1]
					lo := zchars[i+2]
					code := uint8(hi<<5 | lo)
					if code >= 155 && code <= 251 && unicode != nil {
						sb.WriteRune(unicode.zsciiToRune(code))
					} else {
						sb.WriteByte(code)
					}
					i += 3
				} else {
					i++
				}
				oneShot = noShift
			}

		default: // 6..31, indexed into current alphabet
			alphabet := noShift
			if oneShot != noShift {
				alphabet = oneShot
			}
			switch alphabet {
			case shiftA1:
				if idx := int(z) - 6; idx >= 0 && idx < 26 {
					sb.WriteByte(alphabets.A1[idx])
				}
			case shiftA2:
				if idx := int(z) - 7; idx >= 0 && idx < 25 {
					sb.WriteByte(alphabets.A2[idx])
				}
			default:
				if idx := int(z) - 6; idx >= 0 && idx < 26 {
					sb.WriteByte(alphabets.A0[idx])
				}
			}
			oneShot = noShift
			i++
		}
	}

	return sb.String()
}

// charToZChars maps a single lowercase ASCII character to the
// z-character sequence needed to produce it (a shift prefix plus the
// alphabet index, or a ZSCII-escape sequence for anything else).
func charToZChars(ch byte, alphabets *Alphabets) []uint8 {
	for idx, c := range alphabets.A0 {
		if c == ch {
			return []uint8{uint8(idx + 6)}
		}
	}
	for idx, c := range alphabets.A1 {
		if c == ch {
			return []uint8{4, uint8(idx + 6)}
		}
	}
	for idx, c := range alphabets.A2 {
		if c == ch {
			return []uint8{5, uint8(idx + 7)}
		}
	}

	// Unknown character: ZSCII escape (shift to A2, z-char 6, then the
	// 10-bit code split into two 5-bit halves).
	return []uint8{5, 6, uint8(ch >> 5), uint8(ch & 0b11111)}
}

// Encode packs runes into the fixed-length dictionary word representation:
// six z-characters in v3, nine in v4+, padded with z-char 5 and with the
// high bit set on the final word.
func Encode(runes []rune, version uint8, alphabets *Alphabets) []uint8 {
	wordLength := 6
	if version >= 4 {
		wordLength = 9
	}

	var zchars []uint8
	for _, r := range runes {
		ch := byte(r)
		if ch >= 'A' && ch <= 'Z' {
			ch = ch - 'A' + 'a'
		}
		zchars = append(zchars, charToZChars(ch, alphabets)...)
		if len(zchars) >= wordLength {
			break
		}
	}
	for len(zchars) < wordLength {
		zchars = append(zchars, 5)
	}
	zchars = zchars[:wordLength]

	packed := make([]uint8, wordLength/3*2)
	for w := 0; w < wordLength/3; w++ {
		word := uint16(zchars[w*3])<<10 | uint16(zchars[w*3+1])<<5 | uint16(zchars[w*3+2])
		if w == wordLength/3-1 {
			word |= 0x8000
		}
		binary.BigEndian.PutUint16(packed[w*2:w*2+2], word)
	}

	return packed
}
