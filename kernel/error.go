package kernel

// Error describes a kernel error. All kernel errors must be defined as global
// variables that are pointers to the Error structure. This requirement stems
// from the fact that the Go allocator is not available to us when the kernel
// first boots so we cannot use errors.New.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string

	// Errno is the POSIX-style code reported to user code for this error.
	// It is zero for errors that are never surfaced through a syscall.
	Errno Errno
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
