package vm

// opcodeDescriptor is one entry in a dispatch table: everything static
// about an opcode that can be known before it runs, which is exactly
// what lets the decoder consume its store and branch bytes without any
// runtime lookahead.
type opcodeDescriptor struct {
	name       string
	store      bool
	branch     bool
	minVersion uint8
	maxVersion uint8 // 0 means "no upper bound"
	handler    func(v *VM, f *Frame, instr Instruction) error

	// storeVersioned overrides store for the rare opcode slot whose
	// meaning (and therefore whether it stores a result) depends on the
	// story's version - 1OP:15 is "not" (stores) pre-v5 and "call_1n"
	// (doesn't store) from v5 on.
	storeVersioned func(version uint8) bool
}

func (d opcodeDescriptor) storesAt(version uint8) bool {
	if d.storeVersioned != nil {
		return d.storeVersioned(version)
	}
	return d.store
}

var op0Table = map[uint8]opcodeDescriptor{
	0:  {name: "rtrue", handler: opRTrue},
	1:  {name: "rfalse", handler: opRFalse},
	2:  {name: "print", handler: opPrint},
	3:  {name: "print_ret", handler: opPrintRet},
	4:  {name: "nop", handler: opNop},
	5:  {name: "save", branch: true, maxVersion: 3, handler: opSaveLegacy},
	6:  {name: "restore", branch: true, maxVersion: 3, handler: opRestoreLegacy},
	7:  {name: "restart", handler: opRestart},
	8:  {name: "ret_popped", handler: opRetPopped},
	9:  {name: "catch", store: true, minVersion: 5, handler: opCatch},
	10: {name: "quit", handler: opQuit},
	11: {name: "new_line", handler: opNewline},
	12: {name: "show_status", minVersion: 3, maxVersion: 3, handler: opShowStatus},
	13: {name: "verify", branch: true, handler: opVerify},
	15: {name: "piracy", branch: true, handler: opPiracy},
}

var op1Table = map[uint8]opcodeDescriptor{
	0:  {name: "jz", branch: true, handler: opJz},
	1:  {name: "get_sibling", store: true, branch: true, handler: opGetSibling},
	2:  {name: "get_child", store: true, branch: true, handler: opGetChild},
	3:  {name: "get_parent", store: true, handler: opGetParent},
	4:  {name: "get_prop_len", store: true, handler: opGetPropLen},
	5:  {name: "inc", handler: opInc},
	6:  {name: "dec", handler: opDec},
	7:  {name: "print_addr", handler: opPrintAddr},
	8:  {name: "call_1s", store: true, minVersion: 4, handler: opCall1s},
	9:  {name: "remove_obj", handler: opRemoveObj},
	10: {name: "print_obj", handler: opPrintObj},
	11: {name: "ret", handler: opRet},
	12: {name: "jump", handler: opJump},
	13: {name: "print_paddr", handler: opPrintPaddr},
	14: {name: "load", store: true, handler: opLoad},
	15: {name: "not_or_call_1n", storeVersioned: func(version uint8) bool { return version < 5 }, handler: opNotOrCall1n},
}

var op2Table = map[uint8]opcodeDescriptor{
	1:  {name: "je", branch: true, handler: opJe},
	2:  {name: "jl", branch: true, handler: opJl},
	3:  {name: "jg", branch: true, handler: opJg},
	4:  {name: "dec_chk", branch: true, handler: opDecChk},
	5:  {name: "inc_chk", branch: true, handler: opIncChk},
	6:  {name: "jin", branch: true, handler: opJin},
	7:  {name: "test", branch: true, handler: opTest},
	8:  {name: "or", store: true, handler: opOr},
	9:  {name: "and", store: true, handler: opAnd},
	10: {name: "test_attr", branch: true, handler: opTestAttr},
	11: {name: "set_attr", handler: opSetAttr},
	12: {name: "clear_attr", handler: opClearAttr},
	13: {name: "store", handler: opStore},
	14: {name: "insert_obj", handler: opInsertObj},
	15: {name: "loadw", store: true, handler: opLoadw},
	16: {name: "loadb", store: true, handler: opLoadb},
	17: {name: "get_prop", store: true, handler: opGetProp},
	18: {name: "get_prop_addr", store: true, handler: opGetPropAddr},
	19: {name: "get_next_prop", store: true, handler: opGetNextProp},
	20: {name: "add", store: true, handler: opAdd},
	21: {name: "sub", store: true, handler: opSub},
	22: {name: "mul", store: true, handler: opMul},
	23: {name: "div", store: true, handler: opDiv},
	24: {name: "mod", store: true, handler: opMod},
	25: {name: "call_2s", store: true, minVersion: 4, handler: opCall2s},
	26: {name: "call_2n", minVersion: 5, handler: opCall2n},
	27: {name: "set_colour", minVersion: 5, handler: opSetColour},
	28: {name: "throw", minVersion: 5, handler: opThrow},
}

var varTable = map[uint8]opcodeDescriptor{
	0:  {name: "call", store: true, handler: opCall},
	1:  {name: "storew", handler: opStorew},
	2:  {name: "storeb", handler: opStoreb},
	3:  {name: "put_prop", handler: opPutProp},
	4:  {name: "sread", handler: opSread},
	5:  {name: "print_char", handler: opPrintChar},
	6:  {name: "print_num", handler: opPrintNum},
	7:  {name: "random", store: true, handler: opRandom},
	8:  {name: "push", handler: opPush},
	9:  {name: "pull", handler: opPull},
	10: {name: "split_window", minVersion: 3, handler: opSplitWindow},
	11: {name: "set_window", minVersion: 3, handler: opSetWindow},
	12: {name: "call_vs2", store: true, minVersion: 4, handler: opCall},
	13: {name: "erase_window", minVersion: 4, handler: opEraseWindow},
	14: {name: "erase_line", minVersion: 4, handler: opEraseLine},
	15: {name: "set_cursor", minVersion: 4, handler: opSetCursor},
	16: {name: "get_cursor", minVersion: 4, handler: opGetCursor},
	17: {name: "set_text_style", minVersion: 4, handler: opSetTextStyle},
	18: {name: "buffer_mode", minVersion: 4, handler: opBufferMode},
	19: {name: "output_stream", handler: opOutputStream},
	20: {name: "input_stream", handler: opInputStream},
	21: {name: "sound_effect", minVersion: 3, handler: opSoundEffect},
	22: {name: "read_char", store: true, minVersion: 4, handler: opReadChar},
	23: {name: "scan_table", store: true, branch: true, minVersion: 4, handler: opScanTable},
	24: {name: "not", store: true, minVersion: 5, handler: opNot},
	25: {name: "call_vn", minVersion: 5, handler: opCall},
	26: {name: "call_vn2", minVersion: 5, handler: opCall},
	27: {name: "tokenise", minVersion: 5, handler: opTokenise},
	28: {name: "encode_text", minVersion: 5, handler: opEncodeText},
	29: {name: "copy_table", minVersion: 5, handler: opCopyTable},
	30: {name: "print_table", minVersion: 5, handler: opPrintTable},
	31: {name: "check_arg_count", branch: true, minVersion: 5, handler: opCheckArgCount},
}

var extTable = map[uint8]opcodeDescriptor{
	0:  {name: "save", store: true, minVersion: 5, handler: opSave},
	1:  {name: "restore", store: true, minVersion: 5, handler: opRestore},
	2:  {name: "log_shift", store: true, minVersion: 5, handler: opLogShift},
	3:  {name: "art_shift", store: true, minVersion: 5, handler: opArtShift},
	4:  {name: "set_font", store: true, minVersion: 5, handler: opSetFont},
	9:  {name: "save_undo", store: true, minVersion: 5, handler: opSaveUndo},
	10: {name: "restore_undo", store: true, minVersion: 5, handler: opRestoreUndo},
	11: {name: "print_unicode", minVersion: 5, handler: opPrintUnicode},
	12: {name: "check_unicode", store: true, minVersion: 5, handler: opCheckUnicode},
	13: {name: "set_true_colour", minVersion: 5, handler: opSetTrueColour},
}

func lookup(instr Instruction) (opcodeDescriptor, bool) {
	var table map[uint8]opcodeDescriptor
	switch instr.OperandCount {
	case Count0OP:
		table = op0Table
	case Count1OP:
		table = op1Table
	case Count2OP:
		table = op2Table
	case CountVAR:
		table = varTable
	case CountEXT:
		table = extTable
	}
	desc, ok := table[instr.OpcodeNumber]
	return desc, ok
}
