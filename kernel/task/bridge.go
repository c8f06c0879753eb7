package task

import (
	"encoding/binary"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
)

// BridgeSignature marks a valid bridge.
const BridgeSignature = 0xbeafface

// BridgeSize is the in-memory size of a Bridge.
const BridgeSize mem.Size = 40

// Field offsets of the in-memory bridge layout.
const (
	offSignature   = 0
	offPID         = 4
	offRetPID      = 8
	offRetSID      = 12
	offRetSemCount = 16
	offTvSec       = 24
	offTvNsec      = 32
	offErrcode     = 36
)

var errBadSignature = &kernel.Error{Module: "task", Message: "invalid bridge", Errno: kernel.EINVAL}

// Bridge is the per-thread block the kernel writes syscall results to. It
// lives at the top of the thread stack and its address is handed back in R0
// on every syscall return.
type Bridge struct {
	Signature   uint32
	PID         ThreadID
	RetPID      ThreadID
	RetSID      sem.ID
	RetSemCount int32
	TvSec       uint64
	TvNsec      uint32

	// Errcode is zero or a negated Errno.
	Errcode int32
}

// NewBridge returns a signed, zeroed bridge owned by pid.
func NewBridge(pid ThreadID) Bridge {
	return Bridge{Signature: BridgeSignature, PID: pid}
}

// Err returns the error recorded in the bridge or nil.
func (b Bridge) Err() error {
	if b.Errcode == 0 {
		return nil
	}
	return kernel.ErrnoFromCode(b.Errcode)
}

// LoadBridge decodes the bridge stored at at. It fails when the address is
// outside r or the signature does not match.
func LoadBridge(r *mem.Region, at mem.Addr) (Bridge, *kernel.Error) {
	raw, err := r.Bytes(at, BridgeSize)
	if err != nil {
		return Bridge{}, err
	}

	le := binary.LittleEndian
	b := Bridge{
		Signature:   le.Uint32(raw[offSignature:]),
		PID:         ThreadID(le.Uint32(raw[offPID:])),
		RetPID:      ThreadID(le.Uint32(raw[offRetPID:])),
		RetSID:      sem.ID(le.Uint32(raw[offRetSID:])),
		RetSemCount: int32(le.Uint32(raw[offRetSemCount:])),
		TvSec:       le.Uint64(raw[offTvSec:]),
		TvNsec:      le.Uint32(raw[offTvNsec:]),
		Errcode:     int32(le.Uint32(raw[offErrcode:])),
	}
	if b.Signature != BridgeSignature {
		return b, errBadSignature
	}
	return b, nil
}

// Store encodes b at address at.
func (b *Bridge) Store(r *mem.Region, at mem.Addr) *kernel.Error {
	raw, err := r.Bytes(at, BridgeSize)
	if err != nil {
		return err
	}

	le := binary.LittleEndian
	le.PutUint32(raw[offSignature:], b.Signature)
	le.PutUint32(raw[offPID:], uint32(b.PID))
	le.PutUint32(raw[offRetPID:], uint32(b.RetPID))
	le.PutUint32(raw[offRetSID:], uint32(b.RetSID))
	le.PutUint32(raw[offRetSemCount:], uint32(b.RetSemCount))
	le.PutUint32(raw[20:], 0)
	le.PutUint64(raw[offTvSec:], b.TvSec)
	le.PutUint32(raw[offTvNsec:], b.TvNsec)
	le.PutUint32(raw[offErrcode:], uint32(b.Errcode))
	return nil
}
