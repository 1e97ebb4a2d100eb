package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes a multi-step command such as a network scan
type RunnerConfig struct {
	Title           string
	Command         string
	Params          map[string]string
	StepNames       []string
	Troubleshooting []string  // shown when the operation fails
	Output          io.Writer // default os.Stdout
	Width           int       // default terminal width
}

// Operation is the work a Runner wraps. It reports progress through onStep
// and returns the details for the success box.
type Operation func(ctx context.Context, onStep StepCallback) ([]Detail, error)

// Runner prints header, live step lines and a result box around an
// Operation
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	out      io.Writer
	width    int
	now      func() time.Time
}

// NewRunner creates a runner for config
func NewRunner(config RunnerConfig) *Runner {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}

	r := &Runner{
		config: config,
		header: NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		out:    out,
		width:  width,
		now:    time.Now,
	}
	if n := len(config.StepNames); n > 0 {
		r.progress = NewProgress("", n).SetWidth(width).SetStepNames(config.StepNames)
	}
	return r
}

// Run executes op and prints its outcome. The operation's error is returned
// unchanged.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := r.now()

	_, _ = fmt.Fprintln(r.out, r.header.Render())
	_, _ = fmt.Fprintln(r.out)

	details, err := op(ctx, r.onStep)
	elapsed := r.now().Sub(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.out)
	if err != nil {
		result := NewFailureResult(r.config.Title+" failed", err, r.config.Troubleshooting).SetWidth(r.width)
		_, _ = fmt.Fprintln(r.out, result.Render())
		return err
	}

	result := NewSuccessResult(r.config.Title+" complete", details...).SetWidth(r.width)
	result.AddDetail("Duration", elapsed.String())
	_, _ = fmt.Fprintln(r.out, result.Render())
	return nil
}

func (r *Runner) onStep(stepNumber int, name string, status StepStatus, message string) {
	if r.progress == nil || stepNumber < 1 || stepNumber > len(r.progress.Steps) {
		return
	}
	if name != "" {
		r.progress.Steps[stepNumber-1].Name = name
	}
	r.progress.UpdateStep(stepNumber, status, message)

	line := r.progress.renderStepLine(r.progress.Steps[stepNumber-1])
	if status == StepRunning {
		// Overwritten by the final status of the same step
		_, _ = fmt.Fprint(r.out, line+"\r")
		return
	}
	_, _ = fmt.Fprintln(r.out, line)
}
