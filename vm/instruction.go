package vm

// OperandType is the two-bit tag on each operand: which of large
// constant (2 bytes), small constant (1 byte), variable reference (1
// byte) or omitted it is.
type OperandType uint8

const (
	OperandLargeConstant OperandType = 0b00
	OperandSmallConstant OperandType = 0b01
	OperandVariable      OperandType = 0b10
	OperandOmitted       OperandType = 0b11
)

// OperandCount classifies an opcode by how many operands its encoding
// form implies, which in turn selects the dispatch table it's looked
// up in.
type OperandCount int

const (
	Count0OP OperandCount = iota
	Count1OP
	Count2OP
	CountVAR
	CountEXT
)

// Form is the four-way split of the first opcode byte.
type Form int

const (
	FormLong Form = iota
	FormShort
	FormVariable
	FormExtended
)

// Operand is one decoded instruction operand: either a literal value
// (constant) or a variable number to be resolved against the running
// VM's locals/globals/stack.
type Operand struct {
	Type  OperandType
	Value uint16
}

// Resolve returns the operand's effective value: literal constants
// pass through, variable operands read from the current frame.
func (o Operand) Resolve(v *VM) uint16 {
	switch o.Type {
	case OperandLargeConstant, OperandSmallConstant:
		return o.Value
	case OperandVariable:
		return v.readVariable(uint8(o.Value), false)
	default:
		return 0
	}
}

// BranchInfo is the decoded branch-offset byte(s) trailing a branching
// instruction: whether the branch fires when its condition is true or
// false, and the signed offset exactly as encoded (applyBranch applies
// the format's -2 bias when it jumps) or one of the two reserved
// "return immediately" offsets (0 or 1).
type BranchInfo struct {
	WantTrue bool
	Offset   int32
}

// Instruction is one fully decoded opcode: its form, opcode number,
// operands, and - once the dispatch table's store/branch flags are
// known - its store-variable and branch-offset bytes, also consumed at
// decode time since their presence depends only on which opcode this
// is, not on anything computed at runtime.
type Instruction struct {
	StartPC      uint32
	Form         Form
	OperandCount OperandCount
	OpcodeNumber uint8
	RawByte      uint8
	Operands     []Operand
	BytesRead    uint32

	HasStore bool
	StoreVar uint8
	Branch   *BranchInfo
}

// decodeVariableOperands reads the trailing operand-type byte(s) used
// by VAR-form and EXT-form instructions (call_vs2/call_vn2 read a
// second type byte, giving up to 8 operands instead of 4).
func decodeVariableOperands(v *VM, f *Frame, instr *Instruction, extendedCall bool) {
	typeByte := v.readByteIncPC(f)
	var typeByte2 uint8
	maxOperands := 4
	if extendedCall {
		typeByte2 = v.readByteIncPC(f)
		maxOperands = 8
	}

	for i := 0; i < maxOperands; i++ {
		var t OperandType
		if i < 4 {
			t = OperandType((typeByte >> (2 * (3 - i))) & 0b11)
		} else {
			t = OperandType((typeByte2 >> (2 * (7 - i))) & 0b11)
		}
		if t == OperandOmitted {
			break
		}
		switch t {
		case OperandSmallConstant, OperandVariable:
			instr.Operands = append(instr.Operands, Operand{Type: t, Value: uint16(v.readByteIncPC(f))})
		case OperandLargeConstant:
			instr.Operands = append(instr.Operands, Operand{Type: t, Value: v.readHalfWordIncPC(f)})
		}
	}
}

// isExtendedCallOpcode reports whether opcodeNumber (in VAR form)
// takes the second operand-type byte: call_vs2 (12) and call_vn2 (26).
func isExtendedCallOpcode(opcodeNumber uint8) bool {
	return opcodeNumber == 12 || opcodeNumber == 26
}

// Decode reads one instruction starting at the current frame's pc,
// advancing pc past it, per the four Z-machine encoding forms.
func Decode(v *VM, f *Frame) Instruction {
	startPC := f.pc
	opcodeByte := v.readByteIncPC(f)

	instr := Instruction{StartPC: startPC, RawByte: opcodeByte}

	switch {
	case opcodeByte == 0xbe && v.core.Version >= 5:
		instr.OpcodeNumber = v.readByteIncPC(f)
		instr.Form = FormExtended
		instr.OperandCount = CountEXT
		decodeVariableOperands(v, f, &instr, false)

	case opcodeByte>>6 == 0b11:
		instr.Form = FormVariable
		instr.OpcodeNumber = opcodeByte & 0b1_1111
		if (opcodeByte>>5)&1 == 0 {
			instr.OperandCount = Count2OP
		} else {
			instr.OperandCount = CountVAR
		}
		decodeVariableOperands(v, f, &instr, isExtendedCallOpcode(instr.OpcodeNumber) && instr.OperandCount == CountVAR)

	case opcodeByte>>6 == 0b10:
		instr.Form = FormShort
		instr.OpcodeNumber = opcodeByte & 0b1111
		operandType := OperandType((opcodeByte >> 4) & 0b11)

		switch operandType {
		case OperandLargeConstant:
			instr.Operands = append(instr.Operands, Operand{Type: operandType, Value: v.readHalfWordIncPC(f)})
			instr.OperandCount = Count1OP
		case OperandSmallConstant, OperandVariable:
			instr.Operands = append(instr.Operands, Operand{Type: operandType, Value: uint16(v.readByteIncPC(f))})
			instr.OperandCount = Count1OP
		case OperandOmitted:
			instr.OperandCount = Count0OP
		}

	default: // long form
		instr.Form = FormLong
		instr.OpcodeNumber = opcodeByte & 0b1_1111
		instr.OperandCount = Count2OP

		op1Type := OperandSmallConstant
		if (opcodeByte>>6)&1 == 1 {
			op1Type = OperandVariable
		}
		op2Type := OperandSmallConstant
		if (opcodeByte>>5)&1 == 1 {
			op2Type = OperandVariable
		}
		for _, t := range []OperandType{op1Type, op2Type} {
			instr.Operands = append(instr.Operands, Operand{Type: t, Value: uint16(v.readByteIncPC(f))})
		}
	}

	instr.BytesRead = f.pc - startPC
	return instr
}

// decodeStoreAndBranch consumes the store-variable byte and/or the
// branch-offset byte(s) that trail an instruction's operands, per the
// dispatch descriptor's static store/branch flags.
func decodeStoreAndBranch(v *VM, f *Frame, instr *Instruction, desc opcodeDescriptor) {
	if desc.storesAt(v.core.Version) {
		instr.HasStore = true
		instr.StoreVar = v.readByteIncPC(f)
	}
	if desc.branch {
		b1 := v.readByteIncPC(f)
		wantTrue := b1>>7 != 0
		singleByte := (b1>>6)&1 == 1
		offset := int32(b1 & 0b11_1111)
		if !singleByte {
			b2 := v.readByteIncPC(f)
			raw := uint16(b1&0b11_1111)<<8 | uint16(b2)
			offset = int32(int16(raw<<2) >> 2)
		}
		instr.Branch = &BranchInfo{WantTrue: wantTrue, Offset: offset}
	}
	instr.BytesRead = f.pc - instr.StartPC
}
