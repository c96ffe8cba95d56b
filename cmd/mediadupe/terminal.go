package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// isTerminal reports whether w is an interactive terminal. It gates colour
// and the live progress line.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type checkLevel int

const (
	levelOK checkLevel = iota
	levelWarn
	levelFail
)

var checkStyles = map[checkLevel]struct {
	tag   string
	color string
}{
	levelOK:   {"ok", "\x1b[32m"},
	levelWarn: {"warn", "\x1b[33m"},
	levelFail: {"fail", "\x1b[31m"},
}

const (
	colorReset   = "\x1b[0m"
	colorHeading = "\x1b[1;34m"
	checkLabelW  = 18
)

// checkPrinter writes the sectioned, one-line-per-check layout used by status.
type checkPrinter struct {
	w     io.Writer
	color bool
}

func newCheckPrinter(w io.Writer) *checkPrinter {
	return &checkPrinter{w: w, color: isTerminal(w)}
}

func (p *checkPrinter) heading(title string) {
	title = strings.ToUpper(strings.TrimSpace(title))
	if p.color {
		title = colorHeading + title + colorReset
	}
	fmt.Fprintf(p.w, "\n%s\n", title)
}

func (p *checkPrinter) check(label string, level checkLevel, detail string) {
	fmt.Fprintln(p.w, formatCheck(label, level, detail, p.color))
}

func formatCheck(label string, level checkLevel, detail string, color bool) string {
	style := checkStyles[level]
	tag := fmt.Sprintf("%-6s", "["+style.tag+"]")
	if color {
		tag = style.color + tag + colorReset
	}
	line := fmt.Sprintf("  %s %-*s", tag, checkLabelW, label)
	if detail != "" {
		line += " " + detail
	}
	return strings.TrimRight(line, " ")
}
