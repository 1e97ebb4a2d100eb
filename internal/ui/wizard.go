package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/signflow/internal/gate"
	"github.com/muurk/signflow/internal/steps"
)

// RenderStepTable lists the rows of table in order. Rows before current are
// marked done, current is highlighted and the rest are pending. Pass
// steps.ViewUnknown to render every row as pending.
func RenderStepTable(table *steps.Table, current steps.View) string {
	rows := table.Steps()
	at := table.Index(current)

	lines := make([]string, 0, len(rows)+2)
	for i, row := range rows {
		status := StepPending
		switch {
		case at >= 0 && i < at:
			status = StepComplete
		case i == at:
			status = StepRunning
		}
		marker, style := statusMarker(status)

		label := row.Label
		if label == "" {
			label = row.ID.String()
		}
		note := fmt.Sprintf("%s ← %s → %s", row.ID, row.Previous, row.Next)
		if row.IsTerminal() {
			note = fmt.Sprintf("%s ← %s (terminal)", row.ID, row.Previous)
		}

		pad := 28 - lipgloss.Width(label)
		if pad < 1 {
			pad = 1
		}
		lines = append(lines, fmt.Sprintf("  %s %d. %s%s%s",
			style.Render(marker), i+1, style.Render(label), strings.Repeat(" ", pad), StepNoteStyle.Render(note)))
	}

	if b := table.Boundaries(); len(b) > 0 {
		names := make([]string, len(b))
		for i, v := range b {
			names[i] = v.String()
		}
		lines = append(lines, "", StepNoteStyle.Render("  boundaries: "+strings.Join(names, ", ")))
	}

	return strings.Join(lines, "\n")
}

// RenderDecision renders a gate decision as a result box. Blocking issues
// are listed with the view where each can be fixed.
func RenderDecision(view steps.View, d gate.Decision, width int) string {
	if d.Allowed {
		return NewSuccessResult("Ready to continue", Detail{Key: "From", Value: view.String()}).
			SetWidth(width).Render()
	}

	r := NewFailureResult(fmt.Sprintf("Cannot leave %s", view), nil, nil).SetWidth(width)
	for i, issue := range d.Issues {
		r.AddDetail(fmt.Sprintf("%d", i+1), RenderIssue(issue))
	}
	return r.Render()
}

// RenderIssue renders one issue on a single line
func RenderIssue(issue gate.Issue) string {
	var b strings.Builder
	if issue.Header != "" {
		b.WriteString(IssueHeaderStyle.Render(issue.Header))
		b.WriteString(": ")
	}
	b.WriteString(issue.Message)
	if issue.View != steps.ViewUnknown {
		b.WriteString(" ")
		b.WriteString(IssueFixStyle.Render("(fix in " + issue.View.String() + ")"))
	}
	return b.String()
}

// RenderTransition renders a single navigation result, e.g. for
// "signflow nav next"
func RenderTransition(action string, from, to steps.View) string {
	if to == steps.ViewUnknown {
		return ErrorTitleStyle.Render(fmt.Sprintf("  %s  %s from %s: no such step", FailureMarker, action, from))
	}
	arrow := lipgloss.NewStyle().Foreground(PrimaryColor).Render("→")
	return fmt.Sprintf("  %s %s %s %s",
		StepNoteStyle.Render(action), from, arrow, StepCompleteStyle.Render(to.String()))
}
