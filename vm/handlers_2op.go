package vm

import "github.com/goz-interpreter/goz/zobject"

func opJe(v *VM, f *Frame, instr Instruction) error {
	a := instr.Operands[0].Resolve(v)
	branch := false
	for _, op := range instr.Operands[1:] {
		if op.Resolve(v) == a {
			branch = true
		}
	}
	v.applyBranch(f, instr.Branch, branch)
	return nil
}

func opJl(v *VM, f *Frame, instr Instruction) error {
	a := int16(instr.Operands[0].Resolve(v))
	b := int16(instr.Operands[1].Resolve(v))
	v.applyBranch(f, instr.Branch, a < b)
	return nil
}

func opJg(v *VM, f *Frame, instr Instruction) error {
	a := int16(instr.Operands[0].Resolve(v))
	b := int16(instr.Operands[1].Resolve(v))
	v.applyBranch(f, instr.Branch, a > b)
	return nil
}

func opDecChk(v *VM, f *Frame, instr Instruction) error {
	variable := uint8(instr.Operands[0].Resolve(v))
	newValue := int16(v.readVariable(variable, true)) - 1
	v.writeVariable(variable, uint16(newValue), true)
	v.applyBranch(f, instr.Branch, newValue < int16(instr.Operands[1].Resolve(v)))
	return nil
}

func opIncChk(v *VM, f *Frame, instr Instruction) error {
	variable := uint8(instr.Operands[0].Resolve(v))
	newValue := int16(v.readVariable(variable, true)) + 1
	v.writeVariable(variable, uint16(newValue), true)
	v.applyBranch(f, instr.Branch, newValue > int16(instr.Operands[1].Resolve(v)))
	return nil
}

func opJin(v *VM, f *Frame, instr Instruction) error {
	obj := zobject.Get(v.core, instr.Operands[0].Resolve(v))
	v.applyBranch(f, instr.Branch, obj.Parent() == instr.Operands[1].Resolve(v))
	return nil
}

func opTest(v *VM, f *Frame, instr Instruction) error {
	bitmap := instr.Operands[0].Resolve(v)
	flags := instr.Operands[1].Resolve(v)
	v.applyBranch(f, instr.Branch, bitmap&flags == flags)
	return nil
}

func opOr(v *VM, f *Frame, instr Instruction) error {
	v.store(instr, instr.Operands[0].Resolve(v)|instr.Operands[1].Resolve(v))
	return nil
}

func opAnd(v *VM, f *Frame, instr Instruction) error {
	v.store(instr, instr.Operands[0].Resolve(v)&instr.Operands[1].Resolve(v))
	return nil
}

func opTestAttr(v *VM, f *Frame, instr Instruction) error {
	obj := zobject.Get(v.core, instr.Operands[0].Resolve(v))
	v.applyBranch(f, instr.Branch, obj.TestAttribute(instr.Operands[1].Resolve(v)))
	return nil
}

func opSetAttr(v *VM, f *Frame, instr Instruction) error {
	obj := zobject.Get(v.core, instr.Operands[0].Resolve(v))
	if !obj.SetAttribute(instr.Operands[1].Resolve(v)) {
		v.warnOnce("invalid_attribute", "attribute number out of range for this story's version")
	}
	return nil
}

func opClearAttr(v *VM, f *Frame, instr Instruction) error {
	obj := zobject.Get(v.core, instr.Operands[0].Resolve(v))
	if !obj.ClearAttribute(instr.Operands[1].Resolve(v)) {
		v.warnOnce("invalid_attribute", "attribute number out of range for this story's version")
	}
	return nil
}

func opStore(v *VM, f *Frame, instr Instruction) error {
	v.writeVariable(uint8(instr.Operands[0].Resolve(v)), instr.Operands[1].Resolve(v), true)
	return nil
}

func opInsertObj(v *VM, f *Frame, instr Instruction) error {
	zobject.Insert(v.core, instr.Operands[0].Resolve(v), instr.Operands[1].Resolve(v))
	return nil
}

func opLoadw(v *VM, f *Frame, instr Instruction) error {
	addr := uint32(instr.Operands[0].Resolve(v)) + 2*uint32(instr.Operands[1].Resolve(v))
	w, ok := v.core.ReadHalfWord(addr)
	if !ok {
		v.warnOnce("loadw_oob", "loadw read out of bounds address 0x%x", addr)
		return nil
	}
	v.store(instr, w)
	return nil
}

func opLoadb(v *VM, f *Frame, instr Instruction) error {
	addr := uint32(instr.Operands[0].Resolve(v)) + uint32(instr.Operands[1].Resolve(v))
	b, ok := v.core.ReadByte(addr)
	if !ok {
		v.warnOnce("loadb_oob", "loadb read out of bounds address 0x%x", addr)
		return nil
	}
	v.store(instr, uint16(b))
	return nil
}

func opGetProp(v *VM, f *Frame, instr Instruction) error {
	obj := zobject.Get(v.core, instr.Operands[0].Resolve(v))
	value, ok := obj.GetProperty(instr.Operands[1].Resolve(v))
	if !ok {
		v.warnOnce("get_prop_size", "get_prop on a property longer than 2 bytes")
		return nil
	}
	v.store(instr, value)
	return nil
}

func opGetPropAddr(v *VM, f *Frame, instr Instruction) error {
	obj := zobject.Get(v.core, instr.Operands[0].Resolve(v))
	v.store(instr, uint16(obj.GetPropertyAddr(instr.Operands[1].Resolve(v))))
	return nil
}

func opGetNextProp(v *VM, f *Frame, instr Instruction) error {
	obj := zobject.Get(v.core, instr.Operands[0].Resolve(v))
	v.store(instr, obj.GetNextProperty(instr.Operands[1].Resolve(v)))
	return nil
}

func opAdd(v *VM, f *Frame, instr Instruction) error {
	v.store(instr, instr.Operands[0].Resolve(v)+instr.Operands[1].Resolve(v))
	return nil
}

func opSub(v *VM, f *Frame, instr Instruction) error {
	v.store(instr, instr.Operands[0].Resolve(v)-instr.Operands[1].Resolve(v))
	return nil
}

func opMul(v *VM, f *Frame, instr Instruction) error {
	v.store(instr, instr.Operands[0].Resolve(v)*instr.Operands[1].Resolve(v))
	return nil
}

func opDiv(v *VM, f *Frame, instr Instruction) error {
	numerator := int16(instr.Operands[0].Resolve(v))
	denominator := int16(instr.Operands[1].Resolve(v))
	if denominator == 0 {
		v.warnOnce("div_by_zero", "division by zero")
		return nil
	}
	v.store(instr, uint16(numerator/denominator))
	return nil
}

func opMod(v *VM, f *Frame, instr Instruction) error {
	numerator := int16(instr.Operands[0].Resolve(v))
	denominator := int16(instr.Operands[1].Resolve(v))
	if denominator == 0 {
		v.warnOnce("mod_by_zero", "modulo by zero")
		return nil
	}
	v.store(instr, uint16(numerator%denominator))
	return nil
}

func opCall2s(v *VM, f *Frame, instr Instruction) error {
	v.call(instr, RoutineFunction)
	return nil
}

func opCall2n(v *VM, f *Frame, instr Instruction) error {
	v.call(instr, RoutineProcedure)
	return nil
}

func opSetColour(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("set_colour", "set_colour is a no-op in this interpreter")
	return nil
}

func opThrow(v *VM, f *Frame, instr Instruction) error {
	value := instr.Operands[0].Resolve(v)
	targetDepth := instr.Operands[1].Resolve(v)
	for uint16(v.callStack.depth()) > targetDepth {
		if _, ok := v.callStack.pop(); !ok {
			break
		}
	}
	v.ret(value)
	return nil
}
