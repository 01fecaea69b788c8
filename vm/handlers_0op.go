package vm

import "github.com/goz-interpreter/goz/zstring"

func opRTrue(v *VM, f *Frame, instr Instruction) error {
	v.ret(1)
	return nil
}

func opRFalse(v *VM, f *Frame, instr Instruction) error {
	v.ret(0)
	return nil
}

func opPrint(v *VM, f *Frame, instr Instruction) error {
	text, n := zstring.Decode(v.core, v.alphabets, v.unicode, f.pc, true)
	f.pc += n
	v.appendText(text)
	return nil
}

func opPrintRet(v *VM, f *Frame, instr Instruction) error {
	text, n := zstring.Decode(v.core, v.alphabets, v.unicode, f.pc, true)
	f.pc += n
	v.appendText(text)
	v.appendText("\n")
	v.ret(1)
	return nil
}

func opNop(v *VM, f *Frame, instr Instruction) error {
	return nil
}

// opSaveLegacy/opRestoreLegacy are the pre-v4 0OP forms of save/restore,
// which branch rather than store. Persistent save files are out of
// scope; they always report failure.
func opSaveLegacy(v *VM, f *Frame, instr Instruction) error {
	v.applyBranch(f, instr.Branch, false)
	return nil
}

func opRestoreLegacy(v *VM, f *Frame, instr Instruction) error {
	v.applyBranch(f, instr.Branch, false)
	return nil
}

func opRestart(v *VM, f *Frame, instr Instruction) error {
	return &FatalError{PC: instr.StartPC, Reason: "restart is not supported by this interpreter"}
}

func opRetPopped(v *VM, f *Frame, instr Instruction) error {
	v.ret(f.pop(v))
	return nil
}

func opCatch(v *VM, f *Frame, instr Instruction) error {
	v.store(instr, uint16(v.callStack.depth()))
	return nil
}

func opQuit(v *VM, f *Frame, instr Instruction) error {
	return errQuit
}

func opNewline(v *VM, f *Frame, instr Instruction) error {
	v.appendText("\n")
	return nil
}

func opShowStatus(v *VM, f *Frame, instr Instruction) error {
	v.emitStatusBar()
	return nil
}

func opVerify(v *VM, f *Frame, instr Instruction) error {
	declared := v.core.FileChecksum
	fileLength := v.core.FileLength()
	var actual uint16
	for addr := uint32(0x40); addr < fileLength; addr++ {
		b, ok := v.core.ReadByte(addr)
		if !ok {
			break
		}
		actual += uint16(b)
	}
	v.applyBranch(f, instr.Branch, actual == declared)
	return nil
}

func opPiracy(v *VM, f *Frame, instr Instruction) error {
	// Interpreters are asked to be gullible and unconditionally branch.
	v.applyBranch(f, instr.Branch, true)
	return nil
}
