package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiBlue  = "\x1b[34m"
)

const statusNameWidth = 18

// statusPrinter writes aligned preflight check lines, coloring them when the
// destination is a terminal.
type statusPrinter struct {
	out      io.Writer
	colorize bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: isTerminalWriter(out)}
}

func (p *statusPrinter) section(title string) {
	p.println(fmt.Sprintf("== %s ==", title), ansiBlue)
}

func (p *statusPrinter) check(name string, passed bool, detail string) {
	verdict, color := "FAIL", ansiRed
	if passed {
		verdict, color = "OK", ansiGreen
	}
	line := fmt.Sprintf("  %-*s %-4s", statusNameWidth, name, verdict)
	if detail != "" {
		line += " " + detail
	}
	p.println(line, color)
}

func (p *statusPrinter) println(line, color string) {
	if p.colorize && color != "" {
		line = color + line + ansiReset
	}
	fmt.Fprintln(p.out, line)
}

func isTerminalWriter(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
