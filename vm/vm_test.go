package vm

import "testing"

// storyFixture builds a minimal, internally consistent story image: a
// valid header, an empty dictionary, a globals block with room for all
// 240 variables, and whatever code the caller pokes into the tail.
func storyFixture(version uint8) []uint8 {
	const (
		objectTableBase    = 0x40
		dictionaryBase     = 0x80
		globalVariableBase = 0x90
		memorySize         = 0x300
	)

	b := make([]uint8, memorySize)
	b[0x00] = version
	b[0x04], b[0x05] = 0x02, 0x00 // high memory base
	b[0x06], b[0x07] = 0x02, 0x00 // first instruction
	b[0x08], b[0x09] = byte(dictionaryBase >> 8), byte(dictionaryBase)
	b[0x0a], b[0x0b] = byte(objectTableBase >> 8), byte(objectTableBase)
	b[0x0c], b[0x0d] = byte(globalVariableBase >> 8), byte(globalVariableBase)
	b[0x0e], b[0x0f] = 0x02, 0x90 // static memory base

	// Empty dictionary: no separators, entry length 7, zero entries.
	b[dictionaryBase] = 0
	b[dictionaryBase+1] = 7

	return b
}

type fakeDevice struct {
	written []string
	lines   []string
}

func (d *fakeDevice) ReadLine() (string, error) {
	if len(d.lines) == 0 {
		return "", nil
	}
	l := d.lines[0]
	d.lines = d.lines[1:]
	return l, nil
}
func (d *fakeDevice) ReadChar() (byte, error)  { return 0, nil }
func (d *fakeDevice) WriteChar(c byte) error   { d.written = append(d.written, string(rune(c))); return nil }
func (d *fakeDevice) WriteString(s string) error {
	d.written = append(d.written, s)
	return nil
}
func (d *fakeDevice) Close() error { return nil }

func newTestVM(t *testing.T, version uint8, patch func([]uint8)) (*VM, *fakeDevice) {
	t.Helper()
	b := storyFixture(version)
	if patch != nil {
		patch(b)
	}
	dev := &fakeDevice{}
	v, err := New(b, dev)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v, dev
}

func TestDecodeLongForm2OP(t *testing.T) {
	v, _ := newTestVM(t, 3, func(b []uint8) {
		// add 5 3 at 0x200, both small-constant operands.
		b[0x200] = 0x14
		b[0x201] = 0x05
		b[0x202] = 0x03
	})
	frame := v.callStack.top()
	instr := Decode(v, frame)

	if instr.Form != FormLong || instr.OperandCount != Count2OP {
		t.Fatalf("form/count = %v/%v", instr.Form, instr.OperandCount)
	}
	if instr.OpcodeNumber != 20 {
		t.Fatalf("opcode number = %d, want 20 (add)", instr.OpcodeNumber)
	}
	if len(instr.Operands) != 2 || instr.Operands[0].Value != 5 || instr.Operands[1].Value != 3 {
		t.Fatalf("operands = %+v", instr.Operands)
	}
	if instr.BytesRead != 3 {
		t.Fatalf("bytes read = %d, want 3", instr.BytesRead)
	}

	desc, ok := lookup(instr)
	if !ok || desc.name != "add" {
		t.Fatalf("lookup = %+v, %v", desc, ok)
	}
	decodeStoreAndBranch(v, frame, &instr, desc)
	if !instr.HasStore {
		t.Fatal("add should consume a store byte")
	}
}

func TestDecodeShortForm0OPAnd1OP(t *testing.T) {
	v, _ := newTestVM(t, 3, func(b []uint8) {
		b[0x200] = 0xB0 // rtrue, 0OP
		b[0x201] = 0x90 // jz, 1OP small constant
		b[0x202] = 0x00
	})
	frame := v.callStack.top()

	instr := Decode(v, frame)
	if instr.Form != FormShort || instr.OperandCount != Count0OP || instr.OpcodeNumber != 0 {
		t.Fatalf("rtrue decode = %+v", instr)
	}

	instr2 := Decode(v, frame)
	if instr2.Form != FormShort || instr2.OperandCount != Count1OP || instr2.OpcodeNumber != 0 {
		t.Fatalf("jz decode = %+v", instr2)
	}
	if len(instr2.Operands) != 1 || instr2.Operands[0].Type != OperandSmallConstant {
		t.Fatalf("jz operand = %+v", instr2.Operands)
	}
}

func TestDecodeVariableFormSingleOperand(t *testing.T) {
	v, _ := newTestVM(t, 3, func(b []uint8) {
		b[0x200] = 0xE7 // random, VAR form
		b[0x201] = 0x7F // one small-constant operand, rest omitted
		b[0x202] = 0x0A
	})
	frame := v.callStack.top()
	instr := Decode(v, frame)

	if instr.Form != FormVariable || instr.OperandCount != CountVAR || instr.OpcodeNumber != 7 {
		t.Fatalf("decode = %+v", instr)
	}
	if len(instr.Operands) != 1 || instr.Operands[0].Value != 10 {
		t.Fatalf("operands = %+v", instr.Operands)
	}
	if instr.BytesRead != 3 {
		t.Fatalf("bytes read = %d, want 3", instr.BytesRead)
	}
}

func TestDecodeExtendedForm(t *testing.T) {
	v, _ := newTestVM(t, 5, func(b []uint8) {
		b[0x200] = 0xBE // extended prefix
		b[0x201] = 9    // save_undo
		b[0x202] = 0xFF // all operands omitted
	})
	frame := v.callStack.top()
	instr := Decode(v, frame)

	if instr.Form != FormExtended || instr.OperandCount != CountEXT || instr.OpcodeNumber != 9 {
		t.Fatalf("decode = %+v", instr)
	}
	if len(instr.Operands) != 0 {
		t.Fatalf("operands = %+v, want none", instr.Operands)
	}
}

func TestBranchOffsetMath(t *testing.T) {
	v, _ := newTestVM(t, 3, func(b []uint8) {
		// jz with a long (2-byte) branch, offset encoded across both
		// bytes with the top bit of the first clear (want-false branch)
		// and the second-from-top bit clear (2-byte form).
		b[0x200] = 0x90 // jz, small-constant operand
		b[0x201] = 0x00
		b[0x202] = 0x00 // branch byte 1: want=false, 2-byte form, high bits of offset = 0
		b[0x203] = 0x05 // branch byte 2: offset low byte
	})
	frame := v.callStack.top()
	instr := Decode(v, frame)
	desc, ok := lookup(instr)
	if !ok {
		t.Fatal("jz not found")
	}
	decodeStoreAndBranch(v, frame, &instr, desc)

	if instr.Branch == nil {
		t.Fatal("expected branch info")
	}
	if instr.Branch.WantTrue {
		t.Error("want-true should be false")
	}
	if instr.Branch.Offset != 5 {
		t.Errorf("offset = %d, want 5", instr.Branch.Offset)
	}
}

func TestUnknownOpcodeIsFatal(t *testing.T) {
	v, _ := newTestVM(t, 3, func(b []uint8) {
		// Long form, 2OP opcode number 0: never assigned in op2Table.
		b[0x200] = 0x00
		b[0x201] = 0x01
		b[0x202] = 0x01
	})

	err := v.Step()
	if err == nil {
		t.Fatal("expected an error for an unassigned opcode slot")
	}
	if _, ok := err.(*FatalError); !ok {
		t.Fatalf("expected FatalError, got %v (%T)", err, err)
	}
}

func TestVersionGatingIsFatal(t *testing.T) {
	v, _ := newTestVM(t, 3, func(b []uint8) {
		// call_2n (2OP:26) requires v5+; both operands small constants.
		b[0x200] = 0x1A
		b[0x201] = 0x01
		b[0x202] = 0x01
	})
	err := v.Step()
	if err == nil {
		t.Fatal("expected a version-gating error")
	}
	if _, ok := err.(*FatalError); !ok {
		t.Fatalf("expected FatalError, got %v (%T)", err, err)
	}
}

func TestCallStoresReturnValueInCaller(t *testing.T) {
	const routineByteAddr = 0x280
	const packedAddr = routineByteAddr / 2

	v, _ := newTestVM(t, 3, func(b []uint8) {
		// call <packedAddr> -> G00 (global 16); then quit.
		b[0x200] = 0xE0 // VAR form, call (opcode 0)
		b[0x201] = 0x3F // one large-constant operand, rest omitted
		b[0x202] = byte(packedAddr >> 8)
		b[0x203] = byte(packedAddr & 0xFF)
		b[0x204] = 16 // store to global variable 16
		b[0x205] = 0xBA // quit

		// Routine: no locals, ret 42.
		b[routineByteAddr] = 0
		b[routineByteAddr+1] = 0x9B // ret, small-constant operand
		b[routineByteAddr+2] = 42
	})

	if err := v.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := v.readVariable(16, false)
	if got != 42 {
		t.Errorf("global 16 = %d, want 42", got)
	}
}

func TestApplyBranchReservedOffsetsReturnImmediately(t *testing.T) {
	const routineByteAddr = 0x280
	const packedAddr = routineByteAddr / 2

	v, _ := newTestVM(t, 3, func(b []uint8) {
		b[0x200] = 0xE0
		b[0x201] = 0x3F
		b[0x202] = byte(packedAddr >> 8)
		b[0x203] = byte(packedAddr & 0xFF)
		b[0x204] = 16
		b[0x205] = 0xBA

		// Routine: no locals; jz(0) branching true to the reserved
		// "return false" offset (0), then (unreached) ret 99.
		b[routineByteAddr] = 0
		b[routineByteAddr+1] = 0x90 // jz, small constant
		b[routineByteAddr+2] = 0
		b[routineByteAddr+3] = 0xC0 // branch: want-true, 1-byte, offset 0
		b[routineByteAddr+4] = 0x9B
		b[routineByteAddr+5] = 99
	})

	if err := v.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := v.readVariable(16, false); got != 0 {
		t.Errorf("global 16 = %d, want 0 (branch-false return)", got)
	}
}

func TestDivModByZeroWarnsAndDoesNotStore(t *testing.T) {
	const globalVariableBase = 0x90
	v, _ := newTestVM(t, 3, func(b []uint8) {
		// Global 16 preset to a sentinel so we can tell a skipped store
		// apart from one that happens to write zero.
		b[globalVariableBase], b[globalVariableBase+1] = 0xBE, 0xEF

		b[0x200] = 0x17 // long form, 2OP:23 div, both small constants
		b[0x201] = 10
		b[0x202] = 0
		b[0x203] = 16 // store to global 16
		b[0x204] = 0xBA
	})

	var warnings []Warning
	v.WarnFunc = func(w Warning) { warnings = append(warnings, w) }

	if err := v.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := v.readVariable(16, false); got != 0xBEEF {
		t.Errorf("div by zero must not store, global 16 = 0x%x, want unchanged 0xBEEF", got)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for division by zero")
	}
}

func TestLoadwOutOfBoundsWarnsAndDoesNotStore(t *testing.T) {
	const globalVariableBase = 0x90
	v, _ := newTestVM(t, 3, func(b []uint8) {
		b[globalVariableBase], b[globalVariableBase+1] = 0xBE, 0xEF

		b[0x200] = 0xCF // VAR form, 2OP:15 loadw
		b[0x201] = 0x1F // large constant, small constant, rest omitted
		b[0x202] = 0x02
		b[0x203] = 0xFE // array base 0x2FE
		b[0x204] = 0x01 // word index 1 -> address 0x300, out of bounds
		b[0x205] = 16   // store to global 16
		b[0x206] = 0xBA
	})

	var warnings []Warning
	v.WarnFunc = func(w Warning) { warnings = append(warnings, w) }

	if err := v.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := v.readVariable(16, false); got != 0xBEEF {
		t.Errorf("out-of-bounds loadw must not store, global 16 = 0x%x, want unchanged 0xBEEF", got)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for the out-of-bounds read")
	}
}

func TestQuitEndsRunCleanly(t *testing.T) {
	v, _ := newTestVM(t, 3, func(b []uint8) {
		b[0x200] = 0xBA // quit
	})
	if err := v.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestPrintNumAppendsToDevice(t *testing.T) {
	v, dev := newTestVM(t, 3, func(b []uint8) {
		b[0x200] = 0xE6 // VAR form, print_num (opcode 6)
		b[0x201] = 0x7F // one small constant operand
		b[0x202] = 42
		b[0x203] = 0xBA // quit
	})
	if err := v.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, s := range dev.written {
		if s == "42" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected \"42\" written, got %v", dev.written)
	}
}
