package trace

import "testing"

func TestFormatPlainInstruction(t *testing.T) {
	line := Line{
		StartPC:  0x1000,
		Bytes:    []uint8{0xE0, 0x3F},
		Mnemonic: "call",
		Operands: []uint16{0x0140},
	}
	got := Format(line)
	for _, want := range []string{"1000", "e03f", "call", "0140"} {
		if !contains(got, want) {
			t.Errorf("formatted line %q missing %q", got, want)
		}
	}
	if contains(got, "->") || contains(got, "?branch") {
		t.Errorf("non-storing, non-branching instruction shouldn't have a suffix: %q", got)
	}
}

func TestFormatStoreAndBranch(t *testing.T) {
	line := Line{
		StartPC:     0x0281,
		Bytes:       []uint8{0x90, 0x00, 0xC0},
		Mnemonic:    "jz",
		Operands:    []uint16{0},
		Stores:      true,
		StoreVar:    16,
		Branches:    true,
		BranchWant:  true,
		BranchDelta: 0,
	}
	got := Format(line)
	if !contains(got, "-> var10") || !contains(got, "?branch(T:0)") {
		t.Errorf("missing store/branch suffix: %q", got)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
