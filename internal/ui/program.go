package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/signflow/internal/gate"
	"github.com/muurk/signflow/internal/steps"
)

// Printer writes UI components to a writer at a fixed width. Commands build
// one per invocation.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer for w (os.Stdout when nil) at terminal width
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// WithWidth overrides the render width
func (p *Printer) WithWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Width returns the render width
func (p *Printer) Width() int {
	return p.width
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintStepTable prints the rows of table with current highlighted
func (p *Printer) PrintStepTable(table *steps.Table, current steps.View) {
	p.Println(RenderStepTable(table, current))
	p.Newline()
}

// PrintDecision prints the outcome of a gate check on view
func (p *Printer) PrintDecision(view steps.View, d gate.Decision) {
	p.Println(RenderDecision(view, d, p.width))
}

// PrintTransition prints a one-line navigation result
func (p *Printer) PrintTransition(action string, from, to steps.View) {
	p.Println(RenderTransition(action, from, to))
}
