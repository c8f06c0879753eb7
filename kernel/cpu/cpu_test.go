package cpu

import (
	"bytes"
	"strings"
	"testing"
)

func TestAdjustPC(t *testing.T) {
	specs := []struct {
		saved, restoring Mode
		expOffset        int32
		expOK            bool
	}{
		{SVC, SVC, 0, true},
		{IRQ, IRQ, 0, true},
		{SVC, IRQ, 4, true},
		{IRQ, SVC, -4, true},
		{User, SVC, 0, false},
		{SVC, User, 0, false},
	}

	for specIndex, spec := range specs {
		offset, ok := AdjustPC(spec.saved, spec.restoring)
		if offset != spec.expOffset || ok != spec.expOK {
			t.Errorf("[spec %d] expected (%d, %t); got (%d, %t)", specIndex, spec.expOffset, spec.expOK, offset, ok)
		}
	}
}

// The correction must make every save/restore pair land on the same user
// address the thread would have resumed at without a mode change.
func TestAdjustPCRoundTrip(t *testing.T) {
	const insn = Register(0x8000)

	// What each trap records in the link register and where the thread
	// expects to continue.
	saves := []struct {
		mode   Mode
		lr     Register
		resume Register
	}{
		{SVC, insn + 4, insn + 4}, // after an svc at insn
		{IRQ, insn + 4, insn},     // interrupted before insn ran
	}

	for _, save := range saves {
		for _, restoring := range []Mode{SVC, IRQ} {
			offset, ok := AdjustPC(save.mode, restoring)
			if !ok {
				t.Fatalf("unexpected unsupported pair %s -> %s", save.mode, restoring)
			}

			pc := Register(int64(save.lr) + int64(offset))
			if got := ResumeAddr(restoring, pc); got != save.resume {
				t.Errorf("saved in %s, restored from %s: expected resume at %x; got %x", save.mode, restoring, save.resume, got)
			}
		}
	}
}

func TestContextDump(t *testing.T) {
	var (
		ctx Context
		buf bytes.Buffer
	)
	ctx[R0] = 0xbeef
	ctx[SP] = 0x1ff8
	ctx[PC] = 0x8004
	ctx[PSR] = Register(User)

	ctx.DumpTo(&buf)

	for _, exp := range []string{"R0  =     beef", "SP  =     1ff8", "PC  =     8004", "PSR =       10"} {
		if !strings.Contains(buf.String(), exp) {
			t.Errorf("expected dump to contain %q; got:\n%s", exp, buf.String())
		}
	}
}

func TestTransfers(t *testing.T) {
	if tr := ContinueTransfer(); tr.Kind != Continue {
		t.Errorf("expected Continue; got %d", tr.Kind)
	}

	if tr := SwitchTransfer(0x10002); tr.Kind != Switch || tr.To != 0x10002 {
		t.Errorf("unexpected switch transfer %+v", tr)
	}

	if tr := HaltTransfer(nil); tr.Kind != Halt {
		t.Errorf("expected Halt; got %d", tr.Kind)
	}
}
