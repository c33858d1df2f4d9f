// Package progress reports how far a run has advanced through its time span.
package progress

import (
	"time"

	kitlog "github.com/go-kit/kit/log"
	"gonum.org/v1/gonum/floats"
)

// Steps is the number of equally spaced thresholds over (t0, t1].
const Steps = 100

type Notification struct {
	Percent   int
	Threshold float64
	Time      float64
	Elapsed   time.Duration
}

type Reporter interface {
	Report(n Notification)
}

type ReporterFunc func(n Notification)

func (f ReporterFunc) Report(n Notification) { f(n) }

// Tracker fires one notification per threshold, in ascending order, the
// first time the observed time reaches it. Trial evaluations that step back
// in time never refire. A Tracker belongs to a single run.
type Tracker struct {
	thresholds []float64
	next       int
	slack      float64
	start      time.Time
	now        func() time.Time
	reporter   Reporter
}

// NewTracker prepares thresholds over (t0, t1] and starts the wall clock.
// A nil reporter discards notifications.
func NewTracker(t0, t1 float64, r Reporter) *Tracker {
	span := floats.Span(make([]float64, Steps+1), t0, t1)
	t := &Tracker{
		thresholds: span[1:],
		slack:      1e-12 * (t1 - t0),
		now:        time.Now,
		reporter:   r,
	}
	t.start = t.now()
	return t
}

// Observe fires every threshold not yet fired that lies at or below sim and
// returns how many fired.
func (t *Tracker) Observe(sim float64) int {
	fired := 0
	for t.next < len(t.thresholds) && sim+t.slack >= t.thresholds[t.next] {
		if t.reporter != nil {
			t.reporter.Report(Notification{
				Percent:   t.next + 1,
				Threshold: t.thresholds[t.next],
				Time:      sim,
				Elapsed:   t.now().Sub(t.start),
			})
		}
		t.next++
		fired++
	}
	return fired
}

func (t *Tracker) Fired() int { return t.next }
func (t *Tracker) Done() bool { return t.next == len(t.thresholds) }

// LogReporter writes each notification as a structured record.
type LogReporter struct {
	logger kitlog.Logger
}

func NewLogReporter(logger kitlog.Logger) *LogReporter {
	return &LogReporter{logger: kitlog.With(logger, "subsys", "progress")}
}

func (r *LogReporter) Report(n Notification) {
	r.logger.Log("level", "info", "percent", n.Percent, "t", n.Time,
		"elapsed", n.Elapsed.Round(10*time.Millisecond))
}
