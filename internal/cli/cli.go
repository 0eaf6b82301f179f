// Package cli renders tabula command output: planned and applied schema
// operations, live column listings and Cargo-style diagnostics for coded
// errors. Colors are used only when writing to a terminal.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// OutputMode determines how output is formatted.
type OutputMode int

const (
	// ModeTTY enables colored output for interactive terminals.
	ModeTTY OutputMode = iota
	// ModePlain outputs plain text without colors (for pipes/CI).
	ModePlain
)

// DetectMode picks ModeTTY when w is a terminal, unless NO_COLOR is set or
// TERM is dumb.
func DetectMode(w io.Writer) OutputMode {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return ModePlain
	}
	f, ok := w.(*os.File)
	if !ok {
		return ModePlain
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return ModeTTY
	}
	return ModePlain
}

// Printer writes formatted output to one writer.
type Printer struct {
	w    io.Writer
	mode OutputMode
}

// New returns a Printer for w with its mode detected.
func New(w io.Writer) *Printer {
	return &Printer{w: w, mode: DetectMode(w)}
}

// NewWithMode returns a Printer with a fixed mode.
func NewWithMode(w io.Writer, mode OutputMode) *Printer {
	return &Printer{w: w, mode: mode}
}

// Colored reports whether styles are rendered.
func (p *Printer) Colored() bool {
	return p.mode == ModeTTY
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Print writes s as is.
func (p *Printer) Print(s string) {
	fmt.Fprint(p.w, s)
}

// Println writes a line.
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

// Printf writes formatted text.
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}
