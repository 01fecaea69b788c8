// Package zdict parses the dictionary table and tokenizes player input
// against it.
package zdict

import (
	"bytes"
	"sort"

	"github.com/goz-interpreter/goz/core"
	"github.com/goz-interpreter/goz/zstring"
)

// Header is the dictionary's fixed preamble: the word-separator bytes
// (always including space, which is never listed explicitly), the
// byte length of each entry and the entry count.
type Header struct {
	Separators  []uint8
	EntryLength uint8
	Count       int16
}

// Entry is one dictionary word: its encoded z-characters (the sort and
// comparison key), the decoded text for diagnostics, and its address.
type Entry struct {
	Address     uint16
	EncodedWord []uint8
	DecodedWord string
}

// Dictionary is a parsed dictionary table. Entries are kept in the
// ascending encoded order the format guarantees, which is what makes
// binary search valid.
type Dictionary struct {
	Header  Header
	Entries []Entry
}

func encodedWordLength(version uint8) uint32 {
	if version >= 4 {
		return 6
	}
	return 4
}

// Parse reads the dictionary table at c.DictionaryBase.
func Parse(c *core.Core, alphabets *zstring.Alphabets, unicode zstring.UnicodeTable) *Dictionary {
	return ParseAt(c, uint32(c.DictionaryBase), alphabets, unicode)
}

// ParseAt reads a dictionary table at an arbitrary address, as used by
// tokenise's optional custom-dictionary operand.
func ParseAt(c *core.Core, base uint32, alphabets *zstring.Alphabets, unicode zstring.UnicodeTable) *Dictionary {
	numSeparators, _ := c.ReadByte(base)
	separators := make([]uint8, numSeparators)
	for i := 0; i < int(numSeparators); i++ {
		b, _ := c.ReadByte(base + 1 + uint32(i))
		separators[i] = b
	}

	entryLength, _ := c.ReadByte(base + 1 + uint32(numSeparators))
	countWord, _ := c.ReadHalfWord(base + 2 + uint32(numSeparators))
	count := int16(countWord)

	header := Header{Separators: separators, EntryLength: entryLength, Count: count}

	// A negative count means the entries are NOT sorted (rare, some
	// non-standard story files); they are sorted by encoded word below
	// so that Find's binary search still applies.
	unordered := count < 0
	n := int(count)
	if unordered {
		n = -n
	}

	wordLen := encodedWordLength(c.Version)
	entryPtr := base + 4 + uint32(numSeparators)
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		encoded := append([]uint8(nil), c.ReadSlice(entryPtr, entryPtr+wordLen)...)
		decoded, _ := zstring.Decode(c, alphabets, unicode, entryPtr, true)
		entries[i] = Entry{
			Address:     uint16(entryPtr),
			EncodedWord: encoded,
			DecodedWord: decoded,
		}
		entryPtr += uint32(entryLength)
	}

	d := &Dictionary{Header: header, Entries: entries}
	if unordered {
		sort.Slice(d.Entries, func(i, j int) bool {
			return bytes.Compare(d.Entries[i].EncodedWord, d.Entries[j].EncodedWord) < 0
		})
	}
	return d
}

// Find looks up a word by its full encoded z-character representation
// (all 2 words in v3, all 3 in v4+ - comparing the complete encoded
// word, not merely its first two words, is required so distinct long
// words sharing a six-z-char prefix don't collide). Returns 0 if the
// word is not in the dictionary.
func (d *Dictionary) Find(encoded []uint8) uint16 {
	lo, hi := 0, len(d.Entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch bytes.Compare(d.Entries[mid].EncodedWord, encoded) {
		case 0:
			return d.Entries[mid].Address
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

func (d *Dictionary) isSeparator(b uint8) bool {
	for _, s := range d.Header.Separators {
		if b == s {
			return true
		}
	}
	return false
}
