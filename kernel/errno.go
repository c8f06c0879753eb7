package kernel

import "strconv"

// Errno is a POSIX-style error number. Values follow the newlib numbering used
// by the console toolchain. The syscall bridge stores the negated value so
// that zero means success.
type Errno int32

// The error numbers produced by the kernel.
const (
	EPERM      Errno = 1
	EAGAIN     Errno = 11
	ENOMEM     Errno = 12
	EINVAL     Errno = 22
	ENOSYS     Errno = 88
	EOPNOTSUPP Errno = 95
	ETIMEDOUT  Errno = 116
	EOVERFLOW  Errno = 139
)

var errnoNames = map[Errno]string{
	EPERM:      "operation not permitted",
	EAGAIN:     "resource temporarily unavailable",
	ENOMEM:     "out of memory",
	EINVAL:     "invalid argument",
	ENOSYS:     "function not implemented",
	EOPNOTSUPP: "operation not supported",
	ETIMEDOUT:  "timed out",
	EOVERFLOW:  "value too large",
}

// Error implements the error interface.
func (e Errno) Error() string {
	if s, ok := errnoNames[e]; ok {
		return s
	}
	return "errno " + strconv.Itoa(int(e))
}

// Code returns the value stored in a syscall bridge for e.
func (e Errno) Code() int32 {
	return -int32(e)
}

// ErrnoFromCode converts a bridge error code back to an Errno. A zero code
// maps to a zero Errno.
func ErrnoFromCode(code int32) Errno {
	return Errno(-code)
}
