package vm

import (
	"github.com/goz-interpreter/goz/zobject"
	"github.com/goz-interpreter/goz/zstring"
)

func opJz(v *VM, f *Frame, instr Instruction) error {
	v.applyBranch(f, instr.Branch, instr.Operands[0].Resolve(v) == 0)
	return nil
}

func opGetSibling(v *VM, f *Frame, instr Instruction) error {
	sibling := zobject.Get(v.core, instr.Operands[0].Resolve(v)).Sibling()
	v.store(instr, sibling)
	v.applyBranch(f, instr.Branch, sibling != 0)
	return nil
}

func opGetChild(v *VM, f *Frame, instr Instruction) error {
	child := zobject.Get(v.core, instr.Operands[0].Resolve(v)).Child()
	v.store(instr, child)
	v.applyBranch(f, instr.Branch, child != 0)
	return nil
}

func opGetParent(v *VM, f *Frame, instr Instruction) error {
	parent := zobject.Get(v.core, instr.Operands[0].Resolve(v)).Parent()
	v.store(instr, parent)
	return nil
}

func opGetPropLen(v *VM, f *Frame, instr Instruction) error {
	addr := instr.Operands[0].Resolve(v)
	v.store(instr, zobject.GetPropertyLen(v.core, uint32(addr)))
	return nil
}

func opInc(v *VM, f *Frame, instr Instruction) error {
	variable := uint8(instr.Operands[0].Resolve(v))
	v.writeVariable(variable, v.readVariable(variable, true)+1, true)
	return nil
}

func opDec(v *VM, f *Frame, instr Instruction) error {
	variable := uint8(instr.Operands[0].Resolve(v))
	v.writeVariable(variable, v.readVariable(variable, true)-1, true)
	return nil
}

func opPrintAddr(v *VM, f *Frame, instr Instruction) error {
	addr := uint32(instr.Operands[0].Resolve(v))
	text, _ := zstring.Decode(v.core, v.alphabets, v.unicode, addr, true)
	v.appendText(text)
	return nil
}

func opCall1s(v *VM, f *Frame, instr Instruction) error {
	v.call(instr, RoutineFunction)
	return nil
}

func opRemoveObj(v *VM, f *Frame, instr Instruction) error {
	zobject.Remove(v.core, instr.Operands[0].Resolve(v))
	return nil
}

func opPrintObj(v *VM, f *Frame, instr Instruction) error {
	v.appendText(v.objectName(instr.Operands[0].Resolve(v)))
	return nil
}

func opRet(v *VM, f *Frame, instr Instruction) error {
	v.ret(instr.Operands[0].Resolve(v))
	return nil
}

func opJump(v *VM, f *Frame, instr Instruction) error {
	offset := int16(instr.Operands[0].Resolve(v))
	f.pc = uint32(int32(f.pc) + int32(offset) - 2)
	return nil
}

func opPrintPaddr(v *VM, f *Frame, instr Instruction) error {
	addr := v.packedAddress(uint32(instr.Operands[0].Resolve(v)), true)
	text, _ := zstring.Decode(v.core, v.alphabets, v.unicode, addr, true)
	v.appendText(text)
	return nil
}

func opLoad(v *VM, f *Frame, instr Instruction) error {
	variable := uint8(instr.Operands[0].Resolve(v))
	v.store(instr, v.readVariable(variable, true))
	return nil
}

func opNotOrCall1n(v *VM, f *Frame, instr Instruction) error {
	if v.core.Version < 5 {
		val := instr.Operands[0].Resolve(v)
		v.store(instr, ^val)
		return nil
	}
	v.call(instr, RoutineProcedure)
	return nil
}
