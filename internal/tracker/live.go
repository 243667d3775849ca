package tracker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// Live redraws a tracker in place on a terminal. On anything else it stays
// quiet until Stop, which prints the final tree once.
type Live struct {
	mu          sync.Mutex
	w           io.Writer
	t           *Tracker
	interactive bool
	width       int
	lines       int
	stopped     bool
}

// NewLive binds t to w and attaches itself as t's refresh callback.
func NewLive(w io.Writer, t *Tracker) *Live {
	l := &Live{w: w, t: t}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		l.interactive = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			l.width = width
		}
	}
	t.AttachRefresh(l.Refresh)
	return l
}

// Interactive reports whether output is redrawn in place.
func (l *Live) Interactive() bool { return l.interactive }

// Refresh redraws the tree. It is a no-op when not interactive.
func (l *Live) Refresh() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.interactive || l.stopped {
		return
	}
	l.drawLocked()
}

// Stop draws the final state and detaches from the tracker.
func (l *Live) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.t.AttachRefresh(nil)
	l.drawLocked()
}

func (l *Live) drawLocked() {
	out := l.t.Render()
	if l.lines > 0 {
		// Cursor up over the previous frame, then clear to end of screen.
		fmt.Fprintf(l.w, "\x1b[%dA\r\x1b[J", l.lines)
	}
	fmt.Fprintln(l.w, out)
	if l.interactive {
		l.lines = countRows(out, l.width)
	}
}

// countRows returns how many terminal rows s occupies, accounting for
// lines that wrap.
func countRows(s string, width int) int {
	rows := 0
	for _, line := range strings.Split(s, "\n") {
		w := ansi.StringWidth(line)
		if width <= 0 || w <= width {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}
