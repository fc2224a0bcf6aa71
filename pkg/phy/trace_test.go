package phy

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/wire.go/pkg/framework"
)

var (
	testEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ctxTODO   = context.TODO()
)

type segment struct {
	at      time.Time
	voltage float64
}

// traceBus records every SetVoltage at the clock time and replays the
// recorded voltages to readers at their clock time.
type traceBus struct {
	clock    fx.TimeSource
	segments []segment
	reads    []time.Time
	lock     sync.Mutex
}

func newTraceBus(clock fx.TimeSource) *traceBus {
	return &traceBus{clock: clock}
}

func (b *traceBus) SetVoltage(device string, voltage float64) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.segments = append(b.segments, segment{at: b.clock.Time(), voltage: voltage})
}

func (b *traceBus) Voltage(device string) float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	now := b.clock.Time()
	b.reads = append(b.reads, now)
	var voltage float64
	for _, s := range b.segments {
		if s.at.After(now) {
			break
		}
		voltage = s.voltage
	}
	return voltage
}

// replay returns a bus serving the recorded segments to a new clock.
func (b *traceBus) replay(clock fx.TimeSource) *traceBus {
	return &traceBus{clock: clock, segments: b.segments}
}

// levels expands the trace into one voltage per pulse width.
func (b *traceBus) levels(pulseWidth time.Duration) []float64 {
	var levels []float64
	for n, s := range b.segments {
		if n+1 == len(b.segments) {
			break
		}
		for d := b.segments[n+1].at.Sub(s.at); d > 0; d -= pulseWidth {
			levels = append(levels, s.voltage)
		}
	}
	return levels
}

// encodeTrace encodes payload with an InstantClock. The last segment
// marks the end of transmission.
func encodeTrace(conf *Config, payload []byte) (*traceBus, error) {
	clock := fx.NewInstantClock(testEpoch)
	bus := newTraceBus(clock)
	enc := &Encoder{Device: "tx", Bus: bus, Clock: clock, Config: conf}
	err := enc.Send(ctxTODO, NewFrame(payload))
	bus.segments = append(bus.segments, segment{at: clock.Time(), voltage: conf.LowVoltage})
	return bus, err
}

func decodeTrace(conf *Config, bus *traceBus) (*Frame, *traceBus, error) {
	clock := fx.NewInstantClock(testEpoch)
	replay := bus.replay(clock)
	dec := &Decoder{Device: "rx", Bus: replay, Clock: clock, Config: conf}
	ctx, cancel := context.WithTimeout(ctxTODO, 5*time.Second)
	defer cancel()
	frame, err := dec.Receive(ctx)
	return frame, replay, err
}
