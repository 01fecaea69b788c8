// Package vm implements the Z-machine evaluation loop: instruction
// decoding, opcode dispatch, the call-frame machine and the narrow I/O
// device contract the story file drives through.
package vm

import (
	"math/rand"
	"time"

	"github.com/goz-interpreter/goz/core"
	"github.com/goz-interpreter/goz/trace"
	"github.com/goz-interpreter/goz/zdict"
	"github.com/goz-interpreter/goz/zobject"
	"github.com/goz-interpreter/goz/zstring"
)

// MemoryStream tracks one nested output_stream 3 redirection.
type MemoryStream struct {
	baseAddress uint32
	ptr         uint32
}

// Streams tracks which of the four Z-machine output streams are
// currently selected.
type Streams struct {
	Screen        bool
	Transcript    bool
	Memory        bool
	MemoryStreams []MemoryStream
	CommandScript bool
}

// ScreenState is the window/cursor/style state the VM tracks on the
// story's behalf so a device doesn't need to; the device is still the
// one that renders it.
type ScreenState struct {
	UpperWindowHeight  int
	LowerWindowActive  bool
	UpperWindowCursorX int
	UpperWindowCursorY int
	LowerWindowStyle   TextStyle
	UpperWindowStyle   TextStyle
}

// VM is a running Z-machine instance.
type VM struct {
	core       *core.Core
	callStack  CallStack
	dictionary *zdict.Dictionary
	alphabets  *zstring.Alphabets
	unicode    zstring.UnicodeTable
	device     Device
	streams    Streams
	screen     ScreenState
	rng        *rand.Rand
	undoStates []undoState

	currentInstructionPC uint32
	trace                bool
	warned               map[string]bool
	ioErr                error

	// WarnFunc, when set, receives every recoverable-error Warning the
	// VM produces (bounds misses, invalid attributes, div/mod by 0...).
	WarnFunc func(Warning)
	// TraceFunc, when set and Trace is enabled, receives one formatted
	// line per executed instruction.
	TraceFunc func(line string)
}

type undoState struct {
	staticMemoryBase uint16
	dynamicMemory    []uint8
	callStack        CallStack
}

// New loads a story file image and returns a VM ready to Run.
func New(storyBytes []uint8, device Device) (*VM, error) {
	c, err := core.Load(storyBytes)
	if err != nil {
		return nil, err
	}

	alphabets := zstring.LoadAlphabets(c)
	unicode := zstring.LoadUnicodeTable(c)

	v := &VM{
		core:      c,
		alphabets: alphabets,
		unicode:   unicode,
		device:    device,
		streams:   Streams{Screen: true},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	v.dictionary = zdict.Parse(c, alphabets, unicode)

	if c.Version == 6 {
		addr := v.packedAddress(uint32(c.FirstInstruction), false)
		n, _ := c.ReadByte(addr)
		v.callStack.push(Frame{pc: addr + 1, locals: make([]uint16, n)})
	} else {
		v.callStack.push(Frame{pc: uint32(c.FirstInstruction)})
	}

	return v, nil
}

// SetTrace enables or disables per-instruction trace-line emission.
func (v *VM) SetTrace(on bool) { v.trace = on }

// Core exposes the underlying memory image, e.g. for the driver to
// read save-game metadata or the trace package to format operands.
func (v *VM) Core() *core.Core { return v.core }

func (v *VM) readByteIncPC(f *Frame) uint8 {
	b, ok := v.core.ReadByte(f.pc)
	if !ok {
		v.warnOnce("pc_out_of_bounds", "program counter ran past the end of memory")
	}
	f.pc++
	return b
}

func (v *VM) readHalfWordIncPC(f *Frame) uint16 {
	w, ok := v.core.ReadHalfWord(f.pc)
	if !ok {
		v.warnOnce("pc_out_of_bounds", "program counter ran past the end of memory")
	}
	f.pc += 2
	return w
}

func (v *VM) readVariable(variable uint8, indirect bool) uint16 {
	frame := v.callStack.top()
	switch {
	case variable == 0:
		if indirect {
			return frame.peek(v)
		}
		return frame.pop(v)
	case variable < 16:
		idx := int(variable) - 1
		if idx >= len(frame.locals) {
			v.warnOnce("local_oob_read", "read of non-existent local variable L%02x", variable)
			return 0
		}
		return frame.locals[idx]
	default:
		addr := uint32(v.core.GlobalVariableBase) + 2*uint32(variable-16)
		w, _ := v.core.ReadHalfWord(addr)
		return w
	}
}

func (v *VM) writeVariable(variable uint8, value uint16, indirect bool) {
	frame := v.callStack.top()
	switch {
	case variable == 0:
		if indirect {
			frame.pop(v)
		}
		frame.push(value)
	case variable < 16:
		idx := int(variable) - 1
		if idx >= len(frame.locals) {
			v.warnOnce("local_oob_write", "write to non-existent local variable L%02x", variable)
			return
		}
		frame.locals[idx] = value
	default:
		addr := uint32(v.core.GlobalVariableBase) + 2*uint32(variable-16)
		v.core.WriteHalfWord(addr, value)
	}
}

// packedAddress turns a packed routine or string address into a byte
// address, per the version-dependent multiplier (and the v6-7 offset
// table, a forward hook not exercised by the core opcode set).
func (v *VM) packedAddress(addr uint32, isString bool) uint32 {
	switch {
	case v.core.Version < 4:
		return 2 * addr
	case v.core.Version < 6:
		return 4 * addr
	case v.core.Version < 8:
		offset := v.core.RoutinesOffset
		if isString {
			offset = v.core.StringOffset
		}
		return 4*addr + 8*uint32(offset)
	default:
		return 8 * addr
	}
}

// call pushes a new frame for a routine invocation. Calling address 0
// is the Z-machine's documented no-op convention: stores 0 (if the
// call is a function call) and does not push a frame.
func (v *VM) call(instr Instruction, routineType RoutineType) {
	routineAddr := v.packedAddress(uint32(instr.Operands[0].Resolve(v)), false)

	if routineAddr == 0 {
		v.store(instr, 0)
		return
	}

	localCount, _ := v.core.ReadByte(routineAddr)
	routineAddr++

	locals := make([]uint16, localCount)
	for i := 0; i < int(localCount); i++ {
		if i+1 < len(instr.Operands) {
			locals[i] = instr.Operands[i+1].Resolve(v)
		} else if v.core.Version < 5 {
			locals[i], _ = v.core.ReadHalfWord(routineAddr)
		}
		if v.core.Version < 5 {
			routineAddr += 2
		}
	}

	v.callStack.push(Frame{
		pc:             routineAddr,
		locals:         locals,
		routineType:    routineType,
		numArgsPassed:  len(instr.Operands) - 1,
		hasReturnStore: instr.HasStore,
		returnStoreVar: instr.StoreVar,
	})
}

// ret pops the current frame and, if the call that created it expects
// a stored result, stores val in the (now-current) caller frame.
func (v *VM) ret(val uint16) {
	old, ok := v.callStack.pop()
	if !ok {
		return
	}
	if old.hasReturnStore {
		if v.callStack.top() != nil {
			v.writeVariable(old.returnStoreVar, val, false)
		}
	}
}

// applyBranch acts on a pre-decoded branch given the instruction's
// runtime result: jumps (or returns 0/1, the two reserved offsets) if
// result matches the branch's polarity, otherwise falls through.
func (v *VM) applyBranch(f *Frame, branch *BranchInfo, result bool) {
	if branch == nil || result != branch.WantTrue {
		return
	}

	switch branch.Offset {
	case 0:
		v.ret(0)
	case 1:
		v.ret(1)
	default:
		f.pc = uint32(int32(f.pc) + branch.Offset - 2)
	}
}

// store writes val to an instruction's pre-decoded store destination,
// a no-op if the instruction doesn't store.
func (v *VM) store(instr Instruction, val uint16) {
	if instr.HasStore {
		v.writeVariable(instr.StoreVar, val, false)
	}
}

func (v *VM) appendText(s string) {
	if v.streams.Memory {
		cur := &v.streams.MemoryStreams[len(v.streams.MemoryStreams)-1]
		for _, r := range s {
			v.core.WriteByte(cur.ptr, uint8(r))
			cur.ptr++
		}
		return
	}

	if v.streams.Screen && v.device != nil {
		if err := v.device.WriteString(s); err != nil {
			v.ioErr = err
		}
	}
}

// Run drives the evaluation loop until the story executes quit, the
// device reports an unrecoverable I/O error, or an unknown opcode (or
// other fatal condition) is hit.
func (v *VM) Run() error {
	for {
		if err := v.Step(); err != nil {
			if err == errQuit {
				return nil
			}
			return err
		}
	}
}

// Step decodes and executes exactly one instruction.
func (v *VM) Step() error {
	frame := v.callStack.top()
	v.currentInstructionPC = frame.pc

	instr := Decode(v, frame)

	desc, ok := lookup(instr)
	if !ok {
		return &FatalError{PC: instr.StartPC, Reason: "unknown opcode"}
	}
	if v.core.Version < desc.minVersion || (desc.maxVersion != 0 && v.core.Version > desc.maxVersion) {
		return &FatalError{PC: instr.StartPC, Reason: "opcode " + desc.name + " not available in this story's version"}
	}

	decodeStoreAndBranch(v, frame, &instr, desc)

	if v.trace && v.TraceFunc != nil {
		v.TraceFunc(v.formatTrace(instr, desc))
	}

	if err := desc.handler(v, frame, instr); err != nil {
		return err
	}
	if v.ioErr != nil {
		err := v.ioErr
		v.ioErr = nil
		return err
	}
	return nil
}

func (v *VM) objectName(id uint16) string {
	return zobject.Get(v.core, id).Name(v.alphabets, v.unicode)
}

// emitStatusBar builds the v1-3 score/turns or time status line from
// globals 16 (current location object), 17 and 18, and hands it to the
// device if it implements StatusSetter.
func (v *VM) emitStatusBar() {
	setter, ok := v.device.(StatusSetter)
	if !ok {
		return
	}
	location := v.readVariable(16, false)
	setter.SetStatus(StatusBar{
		PlaceName:   v.objectName(location),
		Score:       int(int16(v.readVariable(17, false))),
		Moves:       int(v.readVariable(18, false)),
		IsTimeBased: v.core.StatusBarTimeBased,
	})
}

func (v *VM) formatTrace(instr Instruction, desc opcodeDescriptor) string {
	bytes := v.core.ReadSlice(instr.StartPC, instr.StartPC+instr.BytesRead)
	operandValues := make([]uint16, len(instr.Operands))
	for i, o := range instr.Operands {
		operandValues[i] = o.Value
	}

	line := trace.Line{
		StartPC:  instr.StartPC,
		Bytes:    bytes,
		Mnemonic: desc.name,
		Operands: operandValues,
		Stores:   instr.HasStore,
		StoreVar: instr.StoreVar,
	}
	if instr.Branch != nil {
		line.Branches = true
		line.BranchWant = instr.Branch.WantTrue
		line.BranchDelta = instr.Branch.Offset
	}
	return trace.Format(line)
}
