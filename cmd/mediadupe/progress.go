package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// progressLine rewrites a single status line on interactive terminals and
// stays silent otherwise. Safe for concurrent use.
type progressLine struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	width   int
}

func newProgressLine(w io.Writer) *progressLine {
	return &progressLine{w: w, enabled: isTerminal(w)}
}

func (p *progressLine) Update(format string, args ...any) {
	if p == nil || !p.enabled {
		return
	}
	line := fmt.Sprintf(format, args...)
	p.mu.Lock()
	defer p.mu.Unlock()
	pad := ""
	if n := p.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(p.w, "\r%s%s", line, pad)
	p.width = len(line)
}

// Done ends the status line so following output starts on a fresh line.
func (p *progressLine) Done() {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.width > 0 {
		fmt.Fprintln(p.w)
		p.width = 0
	}
}
