// Package progressbar prints a progress bar to a terminal
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar is a progress bar that is redrawn on each call to Display.
// It is not safe for concurrent use.
type ProgressBar struct {
	w       io.Writer
	width   int
	max     int
	current int
	start   time.Time
	now     func() time.Time
}

// New returns a ProgressBar of the given width in characters which is
// complete after max calls to Increment
func New(w io.Writer, width, max int) *ProgressBar {
	if width < 1 {
		width = 1
	}
	if max < 1 {
		max = 1
	}
	return &ProgressBar{
		w:     w,
		width: width,
		max:   max,
		start: time.Now(),
		now:   time.Now,
	}
}

// Increment records one unit of progress
func (p *ProgressBar) Increment() {
	if p.current < p.max {
		p.current++
	}
}

// Fraction returns the fraction of progress made
func (p *ProgressBar) Fraction() float64 {
	return float64(p.current) / float64(p.max)
}

// String returns the bar as it would be displayed
func (p *ProgressBar) String() string {
	filled := p.current * p.width / p.max

	var b strings.Builder
	b.WriteByte('|')
	b.WriteString(strings.Repeat("█", filled))
	b.WriteString(strings.Repeat(" ", p.width-filled))
	fmt.Fprintf(&b, "| [%.2f%% | elapsed: %v]", 100*p.Fraction(),
		p.now().Sub(p.start).Truncate(time.Second))
	return b.String()
}

// Display redraws the bar over the current line
func (p *ProgressBar) Display() {
	fmt.Fprintf(p.w, "\r\033[K%v", p)
}

// Finish displays the bar a final time and ends its line
func (p *ProgressBar) Finish() {
	p.Display()
	fmt.Fprintln(p.w)
}
