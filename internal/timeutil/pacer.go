package timeutil

import "time"

// Pacer keeps a fixed-step loop in step with wall-clock time. Tick n is due
// n×step after Start; Wait sleeps until it is due and never tries to catch
// up by skipping ticks.
type Pacer struct {
	clock Clock
	step  time.Duration
	start time.Time
	n     int64
}

// NewPacer returns a pacer for ticks of length step.
func NewPacer(clock Clock, step time.Duration) *Pacer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Pacer{clock: clock, step: step}
}

// Start anchors tick 0 at the current time.
func (p *Pacer) Start() {
	p.start = p.clock.Now()
	p.n = 0
}

// Wait blocks until the next tick is due and returns how far behind
// schedule the loop was, or zero when it was on time.
func (p *Pacer) Wait() time.Duration {
	p.n++
	due := p.start.Add(time.Duration(p.n) * p.step)
	if d := p.clock.Until(due); d > 0 {
		p.clock.Sleep(d)
		return 0
	}
	return p.clock.Since(due)
}

// Elapsed returns the wall time since Start.
func (p *Pacer) Elapsed() time.Duration {
	return p.clock.Since(p.start)
}
