package vm

// captureState snapshots everything a restore needs to reproduce this
// exact point in execution: dynamic memory and the call stack. Static
// memory (the story file's read-only tail) never changes, so it isn't
// captured.
func (v *VM) captureState() undoState {
	dynamicMemory := append([]uint8(nil), v.core.DynamicMemory()...)
	return undoState{
		staticMemoryBase: v.core.StaticMemoryBase,
		dynamicMemory:    dynamicMemory,
		callStack:        v.callStack.snapshot(),
	}
}

// applyState restores a previously captured state, refusing one taken
// against a different story file (detected by a mismatched dynamic
// memory boundary).
func (v *VM) applyState(state undoState) bool {
	if state.staticMemoryBase != v.core.StaticMemoryBase {
		return false
	}
	v.core.RestoreDynamicMemory(state.dynamicMemory)
	v.callStack = state.callStack.snapshot()
	return true
}

func (v *VM) saveUndo() {
	v.undoStates = append(v.undoStates, v.captureState())
}

// restoreUndo pops the most recent undo checkpoint and applies it,
// returning the store value save_undo's caller expects: 0 if there was
// nothing to restore, 2 on success (the Z-machine reserves 2, not 1,
// for "we have just restored").
func (v *VM) restoreUndo() uint16 {
	if len(v.undoStates) == 0 {
		return 0
	}
	state := v.undoStates[len(v.undoStates)-1]
	v.undoStates = v.undoStates[:len(v.undoStates)-1]
	if !v.applyState(state) {
		return 0
	}
	return 2
}
