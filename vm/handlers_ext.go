package vm

// opSave/opRestore are the EXT:0/EXT:1 forms of save/restore. Persistent
// save files are out of scope; they always report failure, same as
// opSaveLegacy/opRestoreLegacy.
func opSave(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("save_unsupported", "persistent save is not supported by this interpreter")
	v.store(instr, 0)
	return nil
}

func opRestore(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("restore_unsupported", "persistent restore is not supported by this interpreter")
	v.store(instr, 0)
	return nil
}

func opLogShift(v *VM, f *Frame, instr Instruction) error {
	number := instr.Operands[0].Resolve(v)
	places := int16(instr.Operands[1].Resolve(v))
	switch {
	case places > 0:
		v.store(instr, number<<uint16(places))
	case places < 0:
		v.store(instr, number>>uint16(-places))
	default:
		v.store(instr, number)
	}
	return nil
}

func opArtShift(v *VM, f *Frame, instr Instruction) error {
	number := int16(instr.Operands[0].Resolve(v))
	places := int16(instr.Operands[1].Resolve(v))
	switch {
	case places > 0:
		v.store(instr, uint16(number<<uint16(places)))
	case places < 0:
		v.store(instr, uint16(number>>uint16(-places)))
	default:
		v.store(instr, uint16(number))
	}
	return nil
}

func opSetFont(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("set_font", "set_font is a no-op in this interpreter")
	v.store(instr, 0)
	return nil
}

func opSaveUndo(v *VM, f *Frame, instr Instruction) error {
	v.saveUndo()
	v.store(instr, 1)
	return nil
}

func opRestoreUndo(v *VM, f *Frame, instr Instruction) error {
	v.store(instr, v.restoreUndo())
	return nil
}

func opPrintUnicode(v *VM, f *Frame, instr Instruction) error {
	v.appendText(string(rune(instr.Operands[0].Resolve(v))))
	return nil
}

func opCheckUnicode(v *VM, f *Frame, instr Instruction) error {
	// This interpreter can both display and accept any code point its
	// device's output channel can carry, so unicode support is reported
	// unconditionally once this opcode exists at all (v5+).
	v.store(instr, 0b11)
	return nil
}

func opSetTrueColour(v *VM, f *Frame, instr Instruction) error {
	v.warnOnce("set_true_colour", "set_true_colour is a no-op in this interpreter")
	return nil
}
