package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
)

// FormatError formats an error for CLI display in Cargo/rustc style.
// If the chain holds an *alerr.Error, its code, context, help and cause
// are rendered; other errors print as a single line.
//
//	error[E2003]: unknown column
//	   |
//	   | column: nmae
//	   | table: users
//	help: did you mean 'name'?
func (p *Printer) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var ae *alerr.Error
	if errors.As(err, &ae) {
		return p.formatCoded(ae)
	}
	return p.formatGeneric(err)
}

func (p *Printer) formatCoded(err *alerr.Error) string {
	var b strings.Builder

	b.WriteString(p.Error("error"))
	b.WriteString("[")
	b.WriteString(p.Code(string(err.GetCode())))
	b.WriteString("]: ")
	b.WriteString(err.GetMessage())
	b.WriteString("\n")

	ctx := err.GetContext()
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if k == "helps" || k == "sql" {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	if len(keys) > 0 {
		p.gutter(&b, "")
		for _, k := range keys {
			p.gutter(&b, fmt.Sprintf("%s: %v", k, ctx[k]))
		}
	}

	if sql, ok := ctx["sql"].(string); ok && sql != "" {
		p.gutter(&b, "")
		b.WriteString(p.Note("sql"))
		b.WriteString(": ")
		b.WriteString(sql)
		b.WriteString("\n")
	}

	for _, help := range err.Helps() {
		b.WriteString(p.Help("help"))
		b.WriteString(": ")
		b.WriteString(help)
		b.WriteString("\n")
	}

	if cause := err.GetCause(); cause != nil {
		p.gutter(&b, "")
		b.WriteString(p.Note("cause"))
		b.WriteString(": ")
		b.WriteString(cause.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// gutter writes one "   | text" line.
func (p *Printer) gutter(b *strings.Builder, text string) {
	b.WriteString("   ")
	b.WriteString(p.Pipe())
	if text != "" {
		b.WriteString(" ")
		b.WriteString(text)
	}
	b.WriteString("\n")
}

func (p *Printer) formatGeneric(err error) string {
	return p.Error("error") + ": " + err.Error() + "\n"
}

// FormatWarning formats a warning message.
func (p *Printer) FormatWarning(msg string) string {
	return p.Warning("warning") + ": " + msg + "\n"
}

// FormatNote formats a note message.
func (p *Printer) FormatNote(msg string) string {
	return p.Note("note") + ": " + msg + "\n"
}

// FormatSuccess formats a success message.
func (p *Printer) FormatSuccess(msg string) string {
	return p.Success("success") + ": " + msg + "\n"
}
