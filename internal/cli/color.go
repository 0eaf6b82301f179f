package cli

import "github.com/charmbracelet/lipgloss"

// Color scheme inspired by Cargo/rustc.
// Uses ANSI 256 colors for broad terminal compatibility.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleNote    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleHelp    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleCode    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	stylePipe    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	// Operation markers
	styleAdd    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDrop   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleChange = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	styleHeader    = lipgloss.NewStyle().Bold(true)
	styleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.Colored() {
		return s
	}
	return style.Render(s)
}

// Error returns text styled as an error label.
func (p *Printer) Error(s string) string { return p.render(styleError, s) }

// Warning returns text styled as a warning label.
func (p *Printer) Warning(s string) string { return p.render(styleWarning, s) }

// Note returns text styled as a note label.
func (p *Printer) Note(s string) string { return p.render(styleNote, s) }

// Help returns text styled as a help label.
func (p *Printer) Help(s string) string { return p.render(styleHelp, s) }

// Success returns text styled as a success message.
func (p *Printer) Success(s string) string { return p.render(styleSuccess, s) }

// Code returns text styled as an error code.
func (p *Printer) Code(s string) string { return p.render(styleCode, s) }

// Pipe returns the gutter character of a diagnostic.
func (p *Printer) Pipe() string { return p.render(stylePipe, "|") }

// Header returns text styled as a table header.
func (p *Printer) Header(s string) string { return p.render(styleHeader, s) }

// Dim returns text styled as dim/muted.
func (p *Printer) Dim(s string) string { return p.render(styleDim, s) }

// Highlight returns text styled as highlighted.
func (p *Printer) Highlight(s string) string { return p.render(styleHighlight, s) }
