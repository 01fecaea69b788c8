package vm

import (
	"strconv"
	"strings"
	"time"

	"github.com/goz-interpreter/goz/zdict"
	"github.com/goz-interpreter/goz/zobject"
	"github.com/goz-interpreter/goz/ztable"
)

func opCall(v *VM, f *Frame, instr Instruction) error {
	routineType := RoutineFunction
	if !instr.HasStore {
		routineType = RoutineProcedure
	}
	v.call(instr, routineType)
	return nil
}

func opStorew(v *VM, f *Frame, instr Instruction) error {
	addr := uint32(instr.Operands[0].Resolve(v)) + 2*uint32(instr.Operands[1].Resolve(v))
	if !v.core.WriteHalfWord(addr, instr.Operands[2].Resolve(v)) {
		v.warnOnce("storew_oob", "storew wrote out of bounds address 0x%x", addr)
	}
	return nil
}

func opStoreb(v *VM, f *Frame, instr Instruction) error {
	addr := uint32(instr.Operands[0].Resolve(v)) + uint32(instr.Operands[1].Resolve(v))
	if !v.core.WriteByte(addr, uint8(instr.Operands[2].Resolve(v))) {
		v.warnOnce("storeb_oob", "storeb wrote out of bounds address 0x%x", addr)
	}
	return nil
}

func opPutProp(v *VM, f *Frame, instr Instruction) error {
	obj := zobject.Get(v.core, instr.Operands[0].Resolve(v))
	found, sizeOK := obj.PutProperty(instr.Operands[1].Resolve(v), instr.Operands[2].Resolve(v))
	switch {
	case !found:
		v.warnOnce("put_prop_missing", "put_prop on a property the object doesn't have")
	case !sizeOK:
		v.warnOnce("put_prop_size", "put_prop on a property longer than 2 bytes")
	}
	return nil
}

// terminatingChars returns the set of bytes that end an sread line in
// v5+, honoring a custom table in the header when one is set.
func (v *VM) terminatingChars() []uint8 {
	terminators := []uint8{'\n'}
	if v.core.Version < 5 || v.core.TerminatingCharTableBase == 0 {
		return terminators
	}
	ptr := uint32(v.core.TerminatingCharTableBase)
	for {
		b, ok := v.core.ReadByte(ptr)
		if !ok || b == 0 {
			break
		}
		switch {
		case b == 255:
			for c := uint8(129); c <= 154; c++ {
				terminators = append(terminators, c)
			}
			for c := uint8(252); c <= 254; c++ {
				terminators = append(terminators, c)
			}
			return terminators
		case (b >= 129 && b <= 154) || (b >= 252 && b <= 254):
			terminators = append(terminators, b)
		}
		ptr++
	}
	return terminators
}

func opSread(v *VM, f *Frame, instr Instruction) error {
	if v.core.Version <= 3 {
		v.emitStatusBar()
	}

	// The terminating-character set is computed and discarded: the
	// device returns whole lines, so no terminator other than newline
	// is ever seen here.
	_ = v.terminatingChars()

	textBufferPtr := uint32(instr.Operands[0].Resolve(v))
	var parseBufferPtr uint32
	if len(instr.Operands) > 1 {
		parseBufferPtr = uint32(instr.Operands[1].Resolve(v))
	}

	line, err := v.device.ReadLine()
	if err != nil {
		v.ioErr = err
		return nil
	}
	rawText := []byte(strings.ToLower(line))

	bufferSize, _ := v.core.ReadByte(textBufferPtr)
	writePtr := textBufferPtr + 1
	if v.core.Version >= 5 {
		existing, _ := v.core.ReadByte(writePtr)
		writePtr += 1 + uint32(existing)
	}

	ix := 0
	for ix < int(bufferSize) && ix < len(rawText) {
		chr := rawText[ix]
		if (chr >= 32 && chr <= 126) || (chr >= 155 && chr <= 251) {
			v.core.WriteByte(writePtr+uint32(ix), chr)
		} else {
			v.core.WriteByte(writePtr+uint32(ix), ' ')
		}
		ix++
	}

	if v.core.Version >= 5 {
		v.core.WriteByte(textBufferPtr+1, uint8(ix))
	} else {
		v.core.WriteByte(writePtr+uint32(ix), 0)
	}

	if parseBufferPtr != 0 {
		zdict.Tokenize(v.core, v.dictionary, v.alphabets, textBufferPtr, parseBufferPtr, false)
	}

	if instr.HasStore {
		v.store(instr, 13)
	}
	return nil
}

func opPrintChar(v *VM, f *Frame, instr Instruction) error {
	chr := uint8(instr.Operands[0].Resolve(v))
	if chr != 0 {
		v.appendText(string(rune(chr)))
	}
	return nil
}

func opPrintNum(v *VM, f *Frame, instr Instruction) error {
	v.appendText(strconv.Itoa(int(int16(instr.Operands[0].Resolve(v)))))
	return nil
}

func opRandom(v *VM, f *Frame, instr Instruction) error {
	n := int16(instr.Operands[0].Resolve(v))
	result := uint16(0)
	switch {
	case n < 0:
		v.rng.Seed(int64(n))
	case n == 0:
		v.rng.Seed(time.Now().UnixNano())
	default:
		result = uint16(v.rng.Int31n(int32(n))) + 1
	}
	v.store(instr, result)
	return nil
}

func opPush(v *VM, f *Frame, instr Instruction) error {
	f.push(instr.Operands[0].Resolve(v))
	return nil
}

func opPull(v *VM, f *Frame, instr Instruction) error {
	variable := uint8(instr.Operands[0].Resolve(v))
	v.writeVariable(variable, f.pop(v), true)
	return nil
}

func opSplitWindow(v *VM, f *Frame, instr Instruction) error {
	lines := int(instr.Operands[0].Resolve(v))
	v.screen.UpperWindowHeight = lines
	if splitter, ok := v.device.(WindowSplitter); ok {
		splitter.SplitWindow(lines)
	}
	return nil
}

func opSetWindow(v *VM, f *Frame, instr Instruction) error {
	window := instr.Operands[0].Resolve(v)
	v.screen.LowerWindowActive = window == 0
	if splitter, ok := v.device.(WindowSplitter); ok {
		splitter.SetWindow(v.screen.LowerWindowActive)
	}
	return nil
}

func opEraseWindow(v *VM, f *Frame, instr Instruction) error {
	window := int16(instr.Operands[0].Resolve(v))
	if window == 1 || window == -1 {
		v.screen.LowerWindowActive = true
		v.screen.UpperWindowHeight = 0
	}
	if splitter, ok := v.device.(WindowSplitter); ok {
		splitter.EraseWindow(int(window))
	}
	return nil
}

func opEraseLine(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("erase_line", "erase_line is a no-op in this interpreter")
	return nil
}

func opSetCursor(v *VM, f *Frame, instr Instruction) error {
	line := int(instr.Operands[0].Resolve(v))
	col := int(instr.Operands[1].Resolve(v))
	if v.core.Version == 6 {
		v.warnOnce("set_cursor_v6", "set_cursor's v6 window-relative form is not supported")
		return nil
	}
	if v.screen.LowerWindowActive {
		return nil
	}
	v.screen.UpperWindowCursorX = col
	v.screen.UpperWindowCursorY = line
	if setter, ok := v.device.(CursorSetter); ok {
		setter.SetCursor(line, col)
	}
	return nil
}

func opGetCursor(v *VM, f *Frame, instr Instruction) error {
	addr := uint32(instr.Operands[0].Resolve(v))
	v.core.WriteHalfWord(addr, uint16(v.screen.UpperWindowCursorY))
	v.core.WriteHalfWord(addr+2, uint16(v.screen.UpperWindowCursorX))
	return nil
}

func opSetTextStyle(v *VM, f *Frame, instr Instruction) error {
	mask := TextStyle(instr.Operands[0].Resolve(v))
	if v.screen.LowerWindowActive {
		v.screen.LowerWindowStyle = mask
	} else {
		v.screen.UpperWindowStyle = mask
	}
	if styler, ok := v.device.(TextStyler); ok {
		styler.SetTextStyle(mask)
	}
	return nil
}

func opBufferMode(v *VM, f *Frame, instr Instruction) error {
	return nil
}

func opOutputStream(v *VM, f *Frame, instr Instruction) error {
	stream := int16(instr.Operands[0].Resolve(v))
	switch stream {
	case 1, -1:
		v.streams.Screen = stream > 0
		if setter, ok := v.device.(StreamSetter); ok {
			setter.SetScreenStreamEnabled(v.streams.Screen)
		}
	case 2, -2:
		v.streams.Transcript = stream > 0
	case 3:
		base := uint32(instr.Operands[1].Resolve(v))
		v.streams.Memory = true
		v.streams.MemoryStreams = append(v.streams.MemoryStreams, MemoryStream{baseAddress: base, ptr: base + 2})
	case -3:
		if v.streams.Memory {
			cur := v.streams.MemoryStreams[len(v.streams.MemoryStreams)-1]
			v.core.WriteHalfWord(cur.baseAddress, uint16(cur.ptr-cur.baseAddress-2))
			v.streams.MemoryStreams = v.streams.MemoryStreams[:len(v.streams.MemoryStreams)-1]
			if len(v.streams.MemoryStreams) == 0 {
				v.streams.Memory = false
			}
		}
	case 4, -4:
		v.streams.CommandScript = stream > 0
	}
	return nil
}

func opInputStream(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("input_stream", "reading command scripts back is not supported")
	return nil
}

func opSoundEffect(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("sound_effect", "sound_effect is a no-op in this interpreter")
	return nil
}

func opReadChar(v *VM, f *Frame, instr Instruction) error {
	c, err := v.device.ReadChar()
	if err != nil {
		v.ioErr = err
		return nil
	}
	v.store(instr, uint16(c))
	return nil
}

func opScanTable(v *VM, f *Frame, instr Instruction) error {
	test := instr.Operands[0].Resolve(v)
	tableAddr := instr.Operands[1].Resolve(v)
	length := instr.Operands[2].Resolve(v)
	form := uint16(0x82)
	if len(instr.Operands) == 4 {
		form = instr.Operands[3].Resolve(v)
	}
	result := ztable.ScanTable(v.core, test, uint32(tableAddr), length, form)
	v.store(instr, uint16(result))
	v.applyBranch(f, instr.Branch, result != 0)
	return nil
}

func opNot(v *VM, f *Frame, instr Instruction) error {
	v.store(instr, ^instr.Operands[0].Resolve(v))
	return nil
}

func opTokenise(v *VM, f *Frame, instr Instruction) error {
	text := uint32(instr.Operands[0].Resolve(v))
	parseBuffer := uint32(instr.Operands[1].Resolve(v))
	dict := v.dictionary
	skipUnrecognised := false

	if len(instr.Operands) > 2 {
		dictAddr := uint32(instr.Operands[2].Resolve(v))
		dict = zdict.ParseAt(v.core, dictAddr, v.alphabets, v.unicode)
	}
	if len(instr.Operands) > 3 {
		skipUnrecognised = instr.Operands[3].Resolve(v) != 0
	}

	zdict.Tokenize(v.core, dict, v.alphabets, text, parseBuffer, skipUnrecognised)
	return nil
}

func opEncodeText(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("encode_text", "encode_text is not supported")
	return nil
}

func opCopyTable(v *VM, f *Frame, instr Instruction) error {
	ztable.CopyTable(v.core, instr.Operands[0].Resolve(v), instr.Operands[1].Resolve(v), int16(instr.Operands[2].Resolve(v)))
	return nil
}

func opPrintTable(v *VM, f *Frame, instr Instruction) error {
	addr := instr.Operands[0].Resolve(v)
	width := instr.Operands[1].Resolve(v)
	height := uint16(1)
	skip := uint16(0)
	if len(instr.Operands) > 2 {
		height = instr.Operands[2].Resolve(v)
	}
	if len(instr.Operands) > 3 {
		skip = instr.Operands[3].Resolve(v)
	}
	v.appendText(ztable.PrintTable(v.core, uint32(addr), width, height, skip))
	return nil
}

func opCheckArgCount(v *VM, f *Frame, instr Instruction) error {
	arg := instr.Operands[0].Resolve(v)
	v.applyBranch(f, instr.Branch, int(arg) <= f.numArgsPassed)
	return nil
}
