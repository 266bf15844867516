package game

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// InputScript is recorded input of one client keyed by the tick it is
// applied on. Replaying a script against the same seed reproduces a match.
type InputScript map[int64][]KeyEvent

// ReadInputScript parses lines of the form "<tick> <action>...", where every
// action is formatted like KeyEvent.String. Empty lines and lines starting
// with '#' are skipped. Several lines for the same tick accumulate in order.
func ReadInputScript(r io.Reader) (InputScript, error) {
	script := InputScript{}
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		tick, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || tick < 0 {
			return nil, fmt.Errorf("line %d: invalid tick %q", line, fields[0])
		}
		for _, action := range fields[1:] {
			ev, err := ParseKeyEvent(action)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			script[tick] = append(script[tick], ev)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input script: %w", err)
	}
	return script, nil
}

// WriteInputScript writes s in the format read by ReadInputScript, one line
// per tick in tick order.
func WriteInputScript(w io.Writer, s InputScript) error {
	ticks := make([]int64, 0, len(s))
	for tick := range s {
		ticks = append(ticks, tick)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })

	bw := bufio.NewWriter(w)
	for _, tick := range ticks {
		if len(s[tick]) == 0 {
			continue
		}
		bw.WriteString(strconv.FormatInt(tick, 10))
		for _, ev := range s[tick] {
			bw.WriteByte(' ')
			bw.WriteString(ev.String())
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Batch returns the events of tick as coming from client, or nil.
func (s InputScript) Batch(tick int64, client int) InputBatch {
	events := s[tick]
	if len(events) == 0 {
		return nil
	}
	return InputBatch{client: events}
}
