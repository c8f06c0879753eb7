package cpu

import "github.com/fkuzume/beep8-sdk-sub000/kernel"

// TransferKind tells the trap exit path what to do once the kernel is done.
type TransferKind uint8

const (
	// Continue returns to the interrupted context unchanged.
	Continue TransferKind = iota

	// Switch returns to the thread named by Transfer.To. The live context
	// already holds its registers.
	Switch

	// Halt stops the CPU. Transfer.Err names the fatal condition.
	Halt
)

// Transfer is the outcome of a kernel entry.
type Transfer struct {
	Kind TransferKind

	// To is the thread id being switched to.
	To uint32

	Err *kernel.Error
}

// ContinueTransfer returns a Transfer that resumes the trapping context.
func ContinueTransfer() Transfer {
	return Transfer{Kind: Continue}
}

// SwitchTransfer returns a Transfer that resumes thread id.
func SwitchTransfer(id uint32) Transfer {
	return Transfer{Kind: Switch, To: id}
}

// HaltTransfer returns a Transfer that stops the CPU with err.
func HaltTransfer(err *kernel.Error) Transfer {
	return Transfer{Kind: Halt, Err: err}
}
