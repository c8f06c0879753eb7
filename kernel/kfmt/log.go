package kfmt

// Level selects a class of log output.
type Level uint8

// Log levels; each one has its own bit in the active mask.
const (
	ErrorMask Level = 1 << iota
	WarnMask
	InfoMask
	DebugMask

	// DefaultMask is the mask in effect at boot.
	DefaultMask = ErrorMask | WarnMask | InfoMask
)

var logMask = DefaultMask

// SetLogMask replaces the active log mask and returns the previous one.
func SetLogMask(m Level) Level {
	prev := logMask
	logMask = m
	return prev
}

// Enabled reports whether output at level l is currently printed.
func Enabled(l Level) bool {
	return logMask&l != 0
}

func logf(l Level, tag, format string, args ...interface{}) {
	if !Enabled(l) {
		return
	}
	Printf(tag+format+"\n", args...)
}

// Errorf logs a recoverable error condition.
func Errorf(format string, args ...interface{}) { logf(ErrorMask, "ERROR:", format, args...) }

// Warnf logs a suspicious but non-fatal condition.
func Warnf(format string, args ...interface{}) { logf(WarnMask, "WARN:", format, args...) }

// Infof logs boot and lifecycle information.
func Infof(format string, args ...interface{}) { logf(InfoMask, "", format, args...) }

// Debugf logs scheduler level detail. It is off by default.
func Debugf(format string, args ...interface{}) { logf(DebugMask, "DEBUG:", format, args...) }
