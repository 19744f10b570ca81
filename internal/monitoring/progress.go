package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/texture.report/internal/timeutil"
)

// Progress numbers and reports the steps of one analysis run. It is passed
// explicitly to the code doing the work; nothing reads it from a global.
//
// A nil *Progress is valid and discards everything.
type Progress struct {
	mu      sync.Mutex
	logf    LogFunc
	clock   timeutil.Clock
	label   string
	started time.Time
	steps   int
}

// NewProgress starts a progress report. A nil logf reports through Logf at
// the time of each call; a nil clock uses the wall clock.
func NewProgress(label string, logf LogFunc, clock timeutil.Clock) *Progress {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Progress{
		logf:    logf,
		clock:   clock,
		label:   label,
		started: clock.Now(),
	}
}

// Step reports one unit of work. Safe for concurrent use.
func (p *Progress) Step(format string, v ...interface{}) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.steps++
	n := p.steps
	p.mu.Unlock()
	p.printf("%s [%d] %s", p.label, n, fmt.Sprintf(format, v...))
}

// Steps returns the number of steps reported so far.
func (p *Progress) Steps() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.steps
}

// Done reports the step count and the elapsed time, and returns the latter.
func (p *Progress) Done() time.Duration {
	if p == nil {
		return 0
	}
	elapsed := p.clock.Since(p.started)
	p.printf("%s: %d steps in %s", p.label, p.Steps(), elapsed.Round(time.Millisecond))
	return elapsed
}

func (p *Progress) printf(format string, v ...interface{}) {
	if p.logf != nil {
		p.logf(format, v...)
		return
	}
	Logf(format, v...)
}
