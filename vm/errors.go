package vm

import "fmt"

// FatalError wraps a condition the evaluation loop cannot recover
// from: an unknown opcode, an opcode not available in the story's
// version, or an unsupported restart. I/O failures surfaced from the
// device are returned as the device's own error, not as a FatalError.
type FatalError struct {
	PC     uint32
	Reason string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal error at pc=0x%x: %s", e.PC, e.Reason)
}

// BoundsError is logged (via Warning) and never returned from Run; it
// exists as a value type so handlers can build a message consistently.
type BoundsError struct {
	PC      uint32
	Address uint32
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bounds violation at pc=0x%x: address 0x%x out of range", e.PC, e.Address)
}

// quit is the sentinel returned by Run when the story executed the
// quit opcode - normal termination, not a failure.
var errQuit = fmt.Errorf("quit")

// Warning is a recoverable runtime condition: a bounds miss, an
// invalid attribute number, div/mod by zero, or similar. The VM
// reports these through the WarnFunc hook instead of failing the run.
type Warning struct {
	PC      uint32
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("warning at pc=0x%x: %s", w.PC, w.Message)
}

// warnOnce reports a message tagged with key exactly once per VM
// instance, matching the way a noisy story file shouldn't flood the
// transcript with the same complaint on every instruction.
func (v *VM) warnOnce(key string, format string, args ...any) {
	if v.warned == nil {
		v.warned = map[string]bool{}
	}
	if v.warned[key] {
		return
	}
	v.warned[key] = true
	v.warn(format, args...)
}

func (v *VM) warn(format string, args ...any) {
	if v.WarnFunc == nil {
		return
	}
	v.WarnFunc(Warning{PC: v.currentInstructionPC, Message: fmt.Sprintf(format, args...)})
}
