// Package scope samples the voltage on a wire, like an oscilloscope
// probe attached to it.
package scope

import (
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/wire.go/pkg/framework"
)

// Sample is one observation of the wire.
type Sample struct {
	Time    time.Time          `json:"time"`
	Voltage float64            `json:"voltage"`
	Devices map[string]float64 `json:"devices,omitempty"`
}

// Probe reads the wire. phy.Medium implements it.
type Probe interface {
	Snapshot() (float64, map[string]float64)
}

// Sink consumes samples.
type Sink interface {
	WriteSample(Sample) error
}

// WriteSampleFunc is func type of Sink.
type WriteSampleFunc func(Sample) error

// WriteSample implements Sink.
func (f WriteSampleFunc) WriteSample(s Sample) error {
	return f(s)
}

// Scope captures samples from a Probe and fans them out to sinks.
type Scope struct {
	Probe Probe
	// Detail includes per-device voltages in samples.
	Detail bool
	// Capacity is the number of samples kept in history.
	Capacity int

	sinks   map[int]Sink
	nextID  int
	history []Sample
	lock    sync.Mutex
}

// DefaultCapacity is the default size of the history.
const DefaultCapacity = 256

// New creates a Scope.
func New(probe Probe) *Scope {
	return &Scope{Probe: probe, Capacity: DefaultCapacity}
}

// AddToLoop implements LoopAdder.
func (s *Scope) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, s)
}

// Control implements Controller.
func (s *Scope) Control(cc fx.ControlContext) error {
	s.Capture(cc.Time())
	return nil
}

// AddSink registers a sink and returns the func to remove it.
func (s *Scope) AddSink(sink Sink) func() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.sinks == nil {
		s.sinks = make(map[int]Sink)
	}
	id := s.nextID
	s.nextID++
	s.sinks[id] = sink
	return func() {
		s.lock.Lock()
		delete(s.sinks, id)
		s.lock.Unlock()
	}
}

// Capture takes a sample at now. A sink failing to write is removed.
func (s *Scope) Capture(now time.Time) Sample {
	voltage, devices := s.Probe.Snapshot()
	sample := Sample{Time: now, Voltage: voltage}
	if s.Detail {
		sample.Devices = devices
	}

	s.lock.Lock()
	if s.Capacity > 0 {
		if len(s.history) >= s.Capacity {
			s.history = append(s.history[:0], s.history[len(s.history)-s.Capacity+1:]...)
		}
		s.history = append(s.history, sample)
	}
	sinks := make(map[int]Sink, len(s.sinks))
	for id, sink := range s.sinks {
		sinks[id] = sink
	}
	s.lock.Unlock()

	for id, sink := range sinks {
		if err := sink.WriteSample(sample); err != nil {
			glog.Warningf("scope sink %d removed: %v", id, err)
			s.lock.Lock()
			delete(s.sinks, id)
			s.lock.Unlock()
		}
	}
	return sample
}

// History returns the most recent samples, oldest first.
func (s *Scope) History() []Sample {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Sample(nil), s.history...)
}

// JSONSink writes every sample as a line of JSON.
func JSONSink(w io.Writer) Sink {
	enc := json.NewEncoder(w)
	var lock sync.Mutex
	return WriteSampleFunc(func(s Sample) error {
		lock.Lock()
		defer lock.Unlock()
		return enc.Encode(s)
	})
}

// Plot draws samples as a line of high and low marks.
func Plot(samples []Sample) string {
	var b strings.Builder
	for _, s := range samples {
		switch {
		case s.Voltage > 0:
			b.WriteByte('^')
		case s.Voltage < 0:
			b.WriteByte('_')
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
