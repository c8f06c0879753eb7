package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// Parse reads events in the format written by DumpTo. Blank lines are
// skipped.
func Parse(r io.Reader) ([]Event, error) {
	var (
		evs  []Event
		sc   = bufio.NewScanner(r)
		line int
	)

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 5 || fields[2] != "->" {
			return nil, fmt.Errorf("line %d: malformed event %q", line, sc.Text())
		}

		at, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad timestamp: %v", line, err)
		}
		from, err := strconv.ParseUint(fields[1], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad thread id: %v", line, err)
		}
		to, err := strconv.ParseUint(fields[3], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad thread id: %v", line, err)
		}
		cause, ok := parseCause(fields[4])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown cause %q", line, fields[4])
		}

		evs = append(evs, Event{At: at, From: task.ThreadID(from), To: task.ThreadID(to), Cause: cause})
	}
	return evs, sc.Err()
}

func parseCause(s string) (Cause, bool) {
	for i, name := range causeNames {
		if name == s {
			return Cause(i), true
		}
	}
	return 0, false
}
