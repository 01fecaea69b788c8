// Package core owns the mutable story-file byte image and the header
// fields derived from it.
package core

import (
	"encoding/binary"
	"fmt"
)

// Core is the single mutable byte vector backing a running story, plus
// the header fields parsed from it once at load time.
type Core struct {
	bytes []uint8

	Version               uint8
	FlagByte1             uint8
	StatusBarTimeBased    bool
	ReleaseNumber         uint16
	HighMemoryBase        uint16
	FirstInstruction      uint16
	DictionaryBase        uint16
	ObjectTableBase       uint16
	GlobalVariableBase    uint16
	StaticMemoryBase      uint16
	Serial                string
	AbbreviationTableBase uint16
	FileChecksum          uint16

	InterpreterNumber     uint8
	InterpreterVersion    uint8
	ScreenHeightLines     uint8
	ScreenWidthChars      uint8
	ScreenWidthUnits      uint16
	ScreenHeightUnits     uint16
	FontHeight            uint8
	FontWidth             uint8
	RoutinesOffset        uint16
	StringOffset          uint16

	TerminatingCharTableBase uint16
	StandardRevisionNumber   uint16
	AlphabetTableBase        uint16
	ExtensionTableBase       uint16
}

// ErrInvalidStoryFile is returned by Load when the byte image is too
// short to contain a header or declares an unsupported version.
type ErrInvalidStoryFile struct {
	Reason string
}

func (e *ErrInvalidStoryFile) Error() string {
	return fmt.Sprintf("invalid story file: %s", e.Reason)
}

// Load parses the 64-byte header of a story file image and returns a
// Core ready for execution. The version-specific screen-geometry cells
// are written back into the image (v4+) the way a real interpreter
// advertises its capabilities to the game.
func Load(bytes []uint8) (*Core, error) {
	if len(bytes) < 64 {
		return nil, &ErrInvalidStoryFile{Reason: "file shorter than the 64-byte header"}
	}

	version := bytes[0x00]
	switch version {
	case 1, 2, 3, 4, 5, 6, 7, 8:
		// supported; 6-8 get forward-hook packed-address handling only
	default:
		return nil, &ErrInvalidStoryFile{Reason: fmt.Sprintf("unsupported version byte %d", version)}
	}

	core := &Core{
		bytes:                 bytes,
		Version:               version,
		FlagByte1:             bytes[0x01],
		StatusBarTimeBased:    bytes[0x01]&0b0000_0010 != 0,
		ReleaseNumber:         binary.BigEndian.Uint16(bytes[0x02:0x04]),
		HighMemoryBase:        binary.BigEndian.Uint16(bytes[0x04:0x06]),
		FirstInstruction:      binary.BigEndian.Uint16(bytes[0x06:0x08]),
		DictionaryBase:        binary.BigEndian.Uint16(bytes[0x08:0x0a]),
		ObjectTableBase:       binary.BigEndian.Uint16(bytes[0x0a:0x0c]),
		GlobalVariableBase:    binary.BigEndian.Uint16(bytes[0x0c:0x0e]),
		StaticMemoryBase:      binary.BigEndian.Uint16(bytes[0x0e:0x10]),
		Serial:                string(bytes[0x12:0x18]),
		AbbreviationTableBase: binary.BigEndian.Uint16(bytes[0x18:0x1a]),
		FileChecksum:          binary.BigEndian.Uint16(bytes[0x1c:0x1e]),
	}

	if version >= 4 {
		bytes[0x1e] = 6 // interpreter number: IBM PC, closest match
		bytes[0x1f] = 1 // interpreter version
		bytes[0x20] = 24 // screen height, lines
		bytes[0x21] = 80 // screen width, chars
		binary.BigEndian.PutUint16(bytes[0x22:0x24], 80) // screen width, units
		binary.BigEndian.PutUint16(bytes[0x24:0x26], 24) // screen height, units
		bytes[0x26] = 1 // font height, units
		bytes[0x27] = 1 // font width, units
	}

	if version <= 3 {
		bytes[0x01] |= 0b0010_0000 // split-screen available
	} else {
		bytes[0x01] |= 0b0010_1101 // colours, bold, italic, split-screen
	}

	if version >= 5 {
		bytes[0x32] = 1
		bytes[0x33] = 2
	}

	core.InterpreterNumber = bytes[0x1e]
	core.InterpreterVersion = bytes[0x1f]
	core.ScreenHeightLines = bytes[0x20]
	core.ScreenWidthChars = bytes[0x21]
	core.ScreenWidthUnits = binary.BigEndian.Uint16(bytes[0x22:0x24])
	core.ScreenHeightUnits = binary.BigEndian.Uint16(bytes[0x24:0x26])
	core.FontHeight = bytes[0x26]
	core.FontWidth = bytes[0x27]
	core.RoutinesOffset = binary.BigEndian.Uint16(bytes[0x28:0x2a])
	core.StringOffset = binary.BigEndian.Uint16(bytes[0x2a:0x2c])
	core.TerminatingCharTableBase = binary.BigEndian.Uint16(bytes[0x2e:0x30])
	core.StandardRevisionNumber = binary.BigEndian.Uint16(bytes[0x32:0x34])
	core.AlphabetTableBase = binary.BigEndian.Uint16(bytes[0x34:0x36])
	core.ExtensionTableBase = binary.BigEndian.Uint16(bytes[0x36:0x38])

	return core, nil
}

// MemoryLength returns the size in bytes of the loaded image, which may
// be larger than the header's declared file-length (padding is legal).
func (c *Core) MemoryLength() uint32 {
	return uint32(len(c.bytes))
}

// FileLength returns the header-declared file length, scaled by the
// version-specific packed-address unit.
func (c *Core) FileLength() uint32 {
	var divisor uint32
	switch {
	case c.Version <= 3:
		divisor = 2
	case c.Version <= 5:
		divisor = 4
	default:
		divisor = 8
	}
	return uint32(binary.BigEndian.Uint16(c.bytes[0x1a:0x1c])) * divisor
}

func (c *Core) inBounds(address uint32) bool {
	return address < uint32(len(c.bytes))
}

// ReadByte returns the byte at address, or 0 if address is out of
// bounds (a warning is the caller's responsibility; this accessor is
// the low-level primitive and stays silent so it can be used freely
// from bounds-checking callers that want to report their own context).
func (c *Core) ReadByte(address uint32) (uint8, bool) {
	if !c.inBounds(address) {
		return 0, false
	}
	return c.bytes[address], true
}

// MustReadByte reads a byte known to be in bounds by construction
// (e.g. pc fetches just past a decoded instruction header).
func (c *Core) MustReadByte(address uint32) uint8 {
	return c.bytes[address]
}

// ReadHalfWord returns the big-endian 16-bit word at address.
func (c *Core) ReadHalfWord(address uint32) (uint16, bool) {
	if address+1 >= uint32(len(c.bytes)) {
		return 0, false
	}
	return binary.BigEndian.Uint16(c.bytes[address : address+2]), true
}

func (c *Core) MustReadHalfWord(address uint32) uint16 {
	return binary.BigEndian.Uint16(c.bytes[address : address+2])
}

// ReadSignedHalfWord interprets the word at address as signed 16-bit.
func (c *Core) ReadSignedHalfWord(address uint32) (int16, bool) {
	v, ok := c.ReadHalfWord(address)
	return int16(v), ok
}

// WriteByte writes a byte at address; it is a bounds-checked no-op
// outside the image, per the §7 "bounds violation" contract.
func (c *Core) WriteByte(address uint32, value uint8) bool {
	if !c.inBounds(address) {
		return false
	}
	c.bytes[address] = value
	return true
}

// WriteHalfWord writes a big-endian 16-bit word at address.
func (c *Core) WriteHalfWord(address uint32, value uint16) bool {
	if address+1 >= uint32(len(c.bytes)) {
		return false
	}
	binary.BigEndian.PutUint16(c.bytes[address:address+2], value)
	return true
}

// ReadSlice returns a read-only view of memory between two addresses.
// Callers must not retain it across a write to the same region.
func (c *Core) ReadSlice(start, end uint32) []uint8 {
	if end > uint32(len(c.bytes)) {
		end = uint32(len(c.bytes))
	}
	if start > end {
		start = end
	}
	return c.bytes[start:end]
}

// DynamicMemory returns the writable region used by save/undo snapshots.
func (c *Core) DynamicMemory() []uint8 {
	return c.ReadSlice(0, uint32(c.StaticMemoryBase))
}

// RestoreDynamicMemory overwrites the dynamic region from a prior
// snapshot captured via DynamicMemory.
func (c *Core) RestoreDynamicMemory(snapshot []uint8) {
	copy(c.bytes[:c.StaticMemoryBase], snapshot)
}

// PackedAddressMultiplier returns the factor a packed address (routine
// or string) must be multiplied by to yield a byte address. v6-7 would
// additionally need an offset table; that convention is a forward hook
// only and not exercised by the core opcode set.
func (c *Core) PackedAddressMultiplier() uint32 {
	switch {
	case c.Version < 4:
		return 2
	case c.Version < 6:
		return 4
	default:
		return 8
	}
}
