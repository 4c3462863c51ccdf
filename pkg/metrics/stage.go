// Package metrics times the stages of dv's pipeline: loading and decoding a
// graph, then per frame the layout step, the draw, the color commit and the
// sidebar aggregation.
//
// Stages are process-wide and safe for concurrent use; the fetch goroutine
// and the frame loop record into them at the same time. DV_METRICS=0 turns
// recording off.
//
//	func (e *Engine) Step() float64 {
//	    defer metrics.LayoutStep.Time()()
//	    // ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var disabled = os.Getenv("DV_METRICS") == "0"

// smoothing is the weight of a new sample in the moving average, as a
// shift: 1/8.
const smoothing = 3

// Stage accumulates durations for one pipeline stage.
type Stage struct {
	name     string
	count    atomic.Int64
	total    atomic.Int64
	max      atomic.Int64
	last     atomic.Int64
	smoothed atomic.Int64
}

func newStage(name string) *Stage {
	return &Stage{name: name}
}

// Record adds one measurement.
func (s *Stage) Record(d time.Duration) {
	if disabled {
		return
	}
	ns := d.Nanoseconds()
	first := s.count.Add(1) == 1
	s.total.Add(ns)
	s.last.Store(ns)
	for {
		old := s.max.Load()
		if ns <= old || s.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := s.smoothed.Load()
		next := ns
		if !first && old != 0 {
			next = old + (ns-old)>>smoothing
		}
		if s.smoothed.CompareAndSwap(old, next) {
			break
		}
	}
}

// Time starts a measurement; calling the returned func records it.
func (s *Stage) Time() func() {
	return s.TimeThen(nil)
}

// TimeThen is Time, also passing the measured duration to fn.
func (s *Stage) TimeThen(fn func(time.Duration)) func() {
	if disabled {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		s.Record(d)
		if fn != nil {
			fn(d)
		}
	}
}

func (s *Stage) Name() string { return s.name }

// Count returns the number of measurements.
func (s *Stage) Count() int64 {
	return s.count.Load()
}

// Last returns the most recent measurement.
func (s *Stage) Last() time.Duration {
	return time.Duration(s.last.Load())
}

// Smoothed returns an exponential moving average that follows recent frames
// rather than the whole run.
func (s *Stage) Smoothed() time.Duration {
	return time.Duration(s.smoothed.Load())
}

// Stats returns a summary of the stage.
func (s *Stage) Stats() StageStats {
	count := s.count.Load()
	total := s.total.Load()
	st := StageStats{
		Name:       s.name,
		Count:      count,
		TotalMs:    ms(total),
		MaxMs:      ms(s.max.Load()),
		SmoothedMs: ms(s.smoothed.Load()),
	}
	if count > 0 {
		st.AvgMs = ms(total / count)
	}
	return st
}

func (s *Stage) reset() {
	s.count.Store(0)
	s.total.Store(0)
	s.max.Store(0)
	s.last.Store(0)
	s.smoothed.Store(0)
}

func ms(ns int64) float64 {
	return float64(ns) / 1e6
}

// StageStats is the JSON summary printed by dv --metrics.
type StageStats struct {
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	TotalMs    float64 `json:"total_ms"`
	AvgMs      float64 `json:"avg_ms"`
	MaxMs      float64 `json:"max_ms"`
	SmoothedMs float64 `json:"smoothed_ms"`
}

// Pipeline stages, in the order data flows through them.
var (
	GraphLoad        = newStage("graph_load")
	PayloadDecode    = newStage("payload_decode")
	LayoutStep       = newStage("layout_step")
	FrameRender      = newStage("frame_render")
	ColorCommit      = newStage("color_commit")
	SidebarAggregate = newStage("sidebar_aggregate")
)

var pipeline = []*Stage{GraphLoad, PayloadDecode, LayoutStep, FrameRender, ColorCommit, SidebarAggregate}

// Report returns the stats of every stage that has recorded something, in
// pipeline order.
func Report() []StageStats {
	out := make([]StageStats, 0, len(pipeline))
	for _, s := range pipeline {
		if s.Count() > 0 {
			out = append(out, s.Stats())
		}
	}
	return out
}

// FrameCost returns the smoothed time one frame spends in the per-frame
// stages (step, draw, commit, aggregate).
func FrameCost() time.Duration {
	return LayoutStep.Smoothed() + FrameRender.Smoothed() + ColorCommit.Smoothed() + SidebarAggregate.Smoothed()
}

// ResetAll clears every stage.
func ResetAll() {
	for _, s := range pipeline {
		s.reset()
	}
}
