package termcapture

import (
	"strings"
	"sync"

	"github.com/hinshun/vt10x"
)

const (
	defaultCols = 80
	defaultRows = 24
)

// virtualTerminal wraps a vt10x terminal, serializing access since feed and
// screenText can be called from different goroutines (pull loop vs. a
// waiter polling on a timer).
type virtualTerminal struct {
	mu   sync.Mutex
	term vt10x.Terminal
}

func newVirtualTerminal() *virtualTerminal {
	return &virtualTerminal{term: vt10x.New(vt10x.WithSize(defaultCols, defaultRows))}
}

func (v *virtualTerminal) feed(data string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = v.term.Write([]byte(data))
}

func (v *virtualTerminal) resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.term.Resize(cols, rows)
}

// screenText returns the current screen, each row right-trimmed of
// trailing whitespace and joined by newline.
func (v *virtualTerminal) screenText() string {
	v.mu.Lock()
	raw := v.term.String()
	v.mu.Unlock()

	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}
