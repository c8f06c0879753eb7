package task

import (
	"testing"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
)

func TestTableAllocate(t *testing.T) {
	var tbl Table
	tbl.Reset()

	id := tbl.Allocate()
	if exp := ThreadID(1<<16 | 0); id != exp {
		t.Fatalf("expected first id %x; got %x", exp, id)
	}

	tcb := tbl.Lookup(id)
	if tcb == nil {
		t.Fatal("expected Lookup to find the new TCB")
	}
	if tcb.Status != NotYetInit || tcb.IRQ != irq.None || tcb.WaitSem != 0 {
		t.Fatalf("expected a cleared TCB; got %+v", tcb)
	}

	id2 := tbl.Allocate()
	if exp := ThreadID(2<<16 | 1); id2 != exp {
		t.Fatalf("expected second id %x; got %x", exp, id2)
	}

	t.Run("free and reuse", func(t *testing.T) {
		tbl.Free(id)
		if tbl.Lookup(id) != nil {
			t.Fatal("expected freed id to be stale")
		}

		id3 := tbl.Allocate()
		if id3.Slot() != 0 || id3 == id {
			t.Fatalf("expected slot 0 with a new generation; got %x", id3)
		}
		if tbl.Lookup(id) != nil {
			t.Fatal("expected the old id to stay stale after reuse")
		}
	})
}

func TestTableCapacity(t *testing.T) {
	var tbl Table
	tbl.Reset()

	for i := 0; i < Capacity; i++ {
		if tbl.Allocate() == InvalidID {
			t.Fatalf("expected allocation %d to succeed", i)
		}
	}

	if id := tbl.Allocate(); id != InvalidID {
		t.Fatalf("expected full table to fail cleanly; got %x", id)
	}

	if got := tbl.Live(); got != Capacity {
		t.Fatalf("expected %d live TCBs; got %d", Capacity, got)
	}

	tbl.Lookup(ThreadID(1<<16 | 0)).Status = Zombie
	if got := tbl.Live(); got != Capacity-1 {
		t.Fatalf("expected zombies to be excluded; got %d", got)
	}

	if tbl.Lookup(InvalidID) != nil || tbl.Lookup(ThreadID(1<<16|40)) != nil {
		t.Fatal("expected invalid ids to miss")
	}
}

func TestTCBInit(t *testing.T) {
	tcb := TCB{Arg: 0x55, StackAddr: 0x1fd8}
	tcb.Init(0x8000)

	if tcb.Regs[cpu.R0] != 0x55 || tcb.Regs[cpu.SP] != 0x1fd8 {
		t.Fatalf("unexpected argument or stack registers: %v", tcb.Regs)
	}
	if tcb.Regs[cpu.PC] != 0x8004 {
		t.Fatalf("expected PC to point one instruction past the trampoline; got %x", tcb.Regs[cpu.PC])
	}
	if tcb.Regs[cpu.PSR] != cpu.Register(cpu.User) || tcb.SavedMode != cpu.IRQ || tcb.Status != Ready {
		t.Fatalf("unexpected TCB state after init: %+v", tcb)
	}

	defer kfmt.SetOutputSink(nil)
	defer func() {
		if _, ok := recover().(*kfmt.Halt); !ok {
			t.Fatal("expected a second Init to halt")
		}
	}()
	tcb.Init(0x8000)
}

func TestTCBSaveRestore(t *testing.T) {
	specs := []struct {
		saved, restoring cpu.Mode
		expPC            cpu.Register
	}{
		{cpu.SVC, cpu.SVC, 0x9000},
		{cpu.SVC, cpu.IRQ, 0x9004},
		{cpu.IRQ, cpu.SVC, 0x8ffc},
		{cpu.IRQ, cpu.IRQ, 0x9000},
	}

	for specIndex, spec := range specs {
		var (
			tcb  TCB
			live cpu.Context
		)
		live[cpu.R3] = 3
		live[cpu.PC] = 0x9000

		tcb.Save(&live, spec.saved)
		live = cpu.Context{}
		tcb.Restore(&live, spec.restoring)

		if live[cpu.PC] != spec.expPC || live[cpu.R3] != 3 {
			t.Errorf("[spec %d] expected PC %x; got %x (r3=%d)", specIndex, spec.expPC, live[cpu.PC], live[cpu.R3])
		}
	}
}

func TestBridgeRoundTrip(t *testing.T) {
	r := mem.NewRegion(0x1000, 0x100)
	at := mem.Addr(0x1000 + 0x100 - BridgeSize)

	b := NewBridge(0x30002)
	b.RetPID = 0x40003
	b.RetSID = 0x4001
	b.RetSemCount = -2
	b.TvSec = 1 << 33
	b.TvNsec = 999999999
	b.Errcode = kernel.ETIMEDOUT.Code()

	if err := b.Store(r, at); err != nil {
		t.Fatal(err)
	}

	raw, _ := r.Bytes(at, BridgeSize)
	if raw[0] != 0xce || raw[3] != 0xbe || raw[28] != 2 {
		t.Fatalf("unexpected encoded layout % x", raw)
	}

	got, err := LoadBridge(r, at)
	if err != nil {
		t.Fatal(err)
	}
	if got != b {
		t.Fatalf("expected %+v; got %+v", b, got)
	}
	if got.Err() != kernel.ETIMEDOUT {
		t.Fatalf("expected ETIMEDOUT; got %v", got.Err())
	}
}

func TestLoadBridgeErrors(t *testing.T) {
	r := mem.NewRegion(0x1000, 0x100)

	if _, err := LoadBridge(r, 0x1000); err != errBadSignature {
		t.Fatalf("expected %v; got %v", errBadSignature, err)
	}

	if _, err := LoadBridge(r, 0x10f0); err == nil {
		t.Fatal("expected an out of range bridge to fail")
	}
}

func TestBridgeErrOnReturnedValue(t *testing.T) {
	withErrcode := func(code int32) Bridge {
		b := NewBridge(0x20001)
		b.Errcode = code
		return b
	}

	specs := []struct {
		code   int32
		expErr error
	}{
		{0, nil},
		{kernel.EINVAL.Code(), kernel.EINVAL},
		{kernel.EOVERFLOW.Code(), kernel.EOVERFLOW},
	}

	for specIndex, spec := range specs {
		if got := withErrcode(spec.code).Err(); got != spec.expErr {
			t.Errorf("[spec %d] expected %v; got %v", specIndex, spec.expErr, got)
		}
	}
}
