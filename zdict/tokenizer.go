package zdict

import (
	"github.com/goz-interpreter/goz/core"
	"github.com/goz-interpreter/goz/zstring"
)

type token struct {
	text     []uint8
	startPos uint32 // offset from the start of the text buffer
}

func encodeToken(t token, version uint8, alphabets *zstring.Alphabets) []uint8 {
	runes := make([]rune, len(t.text))
	for i, b := range t.text {
		runes[i] = rune(b)
	}
	return zstring.Encode(runes, version, alphabets)
}

// Tokenize splits the text at textBuffer into words on spaces and the
// dictionary's declared separator bytes (separators are themselves
// emitted as one-character words), looks each up in dict and writes
// the result into parseBuffer.
//
// When skipUnrecognised is false (the default) and a word isn't in the
// dictionary, its parse-buffer entry is left completely untouched -
// matching the `tokenise` opcode's flag semantics for callers that
// pre-fill the buffer and want their own data preserved for words they
// don't recognise. When skipUnrecognised is true, every word's entry is
// written, with a zero dictionary address for unrecognised words.
func Tokenize(c *core.Core, dict *Dictionary, alphabets *zstring.Alphabets, textBuffer, parseBuffer uint32, skipUnrecognised bool) {
	textStart := textBuffer + 1
	var length uint32
	if c.Version >= 5 {
		n, _ := c.ReadByte(textBuffer + 1)
		length = uint32(n)
		textStart = textBuffer + 2
	} else {
		// v1-4: text runs until a 0 terminator byte.
		for {
			b, ok := c.ReadByte(textStart + length)
			if !ok || b == 0 {
				break
			}
			length++
		}
	}

	text := c.ReadSlice(textStart, textStart+length)

	var tokens []token
	wordStart := 0
	flush := func(end int) {
		if end > wordStart {
			tokens = append(tokens, token{text: append([]uint8(nil), text[wordStart:end]...), startPos: uint32(wordStart)})
		}
	}
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == ' ':
			flush(i)
			wordStart = i + 1
		case dict.isSeparator(ch):
			flush(i)
			tokens = append(tokens, token{text: []uint8{ch}, startPos: uint32(i)})
			wordStart = i + 1
		}
	}
	flush(len(text))

	maxWords, _ := c.ReadByte(parseBuffer)
	if int(maxWords) < len(tokens) {
		tokens = tokens[:maxWords]
	}

	c.WriteByte(parseBuffer+1, uint8(len(tokens)))
	entryPtr := parseBuffer + 2
	for _, t := range tokens {
		encoded := encodeToken(t, c.Version, alphabets)
		dictAddr := dict.Find(encoded)
		if dictAddr == 0 && !skipUnrecognised {
			entryPtr += 4
			continue
		}
		c.WriteHalfWord(entryPtr, dictAddr)
		c.WriteByte(entryPtr+2, uint8(len(t.text)))
		c.WriteByte(entryPtr+3, uint8(1+t.startPos))
		entryPtr += 4
	}
}
