// Package progress draws terminal progress for file analysis.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/carbonsense/carbonsense/pkg/analyzer"
)

// Interactive reports whether f is a terminal. Bars are only drawn there.
func Interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Bar wraps a progress bar for file processing.
type Bar struct {
	bar   *progressbar.ProgressBar
	label string
	w     io.Writer
}

// NewSpinner creates a spinner for operations with unknown total count.
func NewSpinner(w io.Writer, label string) *Bar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Bar{bar: bar, label: label, w: w}
}

// NewBar creates a progress bar over total files. A non-positive total
// falls back to a spinner.
func NewBar(w io.Writer, label string, total int) *Bar {
	if total <= 0 {
		return NewSpinner(w, label)
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, label: label, w: w}
}

// Tracker returns an analyzer tracker that advances the bar once per file.
// Attach it with analyzer.WithTracker.
func (b *Bar) Tracker() *analyzer.Tracker {
	return analyzer.NewTracker(func(analyzer.Progress) {
		b.bar.Add(1)
	})
}

// Done returns how many files the bar has counted.
func (b *Bar) Done() int {
	return int(b.bar.State().CurrentNum)
}

// FinishSuccess clears the bar completely (no output).
func (b *Bar) FinishSuccess() {
	b.bar.Finish()
	b.bar.Clear()
}

// FinishFailed clears the bar and reports how many files failed.
func (b *Bar) FinishFailed(p analyzer.Progress) {
	b.bar.Finish()
	b.bar.Clear()
	if p.Failed > 0 {
		fmt.Fprintf(b.w, "  %s: %d of %d files failed\n", b.label, p.Failed, p.Done)
	}
}

// FinishError clears the bar and prints an error message.
func (b *Bar) FinishError(err error) {
	b.bar.Finish()
	b.bar.Clear()
	fmt.Fprintf(b.w, "  %s error: %v\n", b.label, err)
}
