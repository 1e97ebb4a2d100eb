package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus is the state of one step of a multi-step command
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// Step is one line in a progress list
type Step struct {
	Number  int
	Name    string
	Status  StepStatus
	Message string // e.g., "2 hubs", "cached"
}

// Progress is a bar plus a step list
type Progress struct {
	Label     string
	Steps     []Step
	Current   int
	Total     int
	Percent   float64
	Width     int
	ShowBar   bool
	ShowSteps bool
	bar       progress.Model
}

// NewProgress creates a progress display for totalSteps steps
func NewProgress(label string, totalSteps int) *Progress {
	steps := make([]Step, totalSteps)
	for i := range steps {
		steps[i] = Step{Number: i + 1}
	}

	p := &Progress{
		Label:     label,
		Steps:     steps,
		Total:     totalSteps,
		ShowBar:   true,
		ShowSteps: true,
	}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth sizes the bar to fit width
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// SetStepNames names the steps in order
func (p *Progress) SetStepNames(names []string) *Progress {
	for i, name := range names {
		if i < len(p.Steps) {
			p.Steps[i].Name = name
		}
	}
	return p
}

// UpdateStep sets a step's status and message. Out-of-range steps are ignored.
func (p *Progress) UpdateStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	p.Steps[stepNumber-1].Status = status
	p.Steps[stepNumber-1].Message = message

	if status == StepRunning {
		p.Current = stepNumber
		return
	}

	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	if p.Total > 0 {
		p.Percent = float64(done) / float64(p.Total)
	}
}

// StartStep marks a step as running
func (p *Progress) StartStep(stepNumber int, message string) {
	p.UpdateStep(stepNumber, StepRunning, message)
}

// CompleteStep marks a step as complete
func (p *Progress) CompleteStep(stepNumber int, message string) {
	p.UpdateStep(stepNumber, StepComplete, message)
}

// Render returns the label, bar and step list
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	if p.ShowBar {
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]",
			p.bar.ViewAs(p.Percent), p.Percent*100, p.Current, p.Total)))
		b.WriteString("\n\n")
	}

	if p.ShowSteps {
		lines := make([]string, 0, len(p.Steps))
		for _, s := range p.Steps {
			lines = append(lines, p.renderStepLine(s))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}

	return b.String()
}

func (p *Progress) renderStepLine(step Step) string {
	marker, style := statusMarker(step.Status)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  [%d/%d] ", step.Number, p.Total))
	b.WriteString(style.Render(step.Name))

	padding := 45 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

func statusMarker(status StepStatus) (string, lipgloss.Style) {
	switch status {
	case StepComplete:
		return StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		return StepMarkerRunning, StepRunningStyle
	case StepFailed:
		return FailureMarker, ErrorTitleStyle
	case StepSkipped:
		return StepMarkerSkipped, StepPendingStyle
	default:
		return StepMarkerPending, StepPendingStyle
	}
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

// StepCallback reports progress from inside a Runner operation
type StepCallback func(stepNumber int, name string, status StepStatus, message string)
