package phy

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/wire.go/pkg/framework"
)

// Encoder transmits frames by asserting timed voltages on a Bus.
type Encoder struct {
	Device string
	Bus    Bus
	Clock  fx.Clock
	Config *Config
}

// Send transmits frame and returns after the terminator is asserted.
// A nil frame is a no-op. If a wait fails, the remaining pulses are not
// sent and the device keeps asserting its last voltage.
func (e *Encoder) Send(ctx context.Context, frame *Frame) error {
	if frame == nil {
		return nil
	}
	if size := frame.Len(); size > e.Config.MaxPayloadSize {
		return &PayloadTooLargeError{Size: size, Max: e.Config.MaxPayloadSize}
	}
	if err := e.assert(ctx, e.Config.LowVoltage, e.Config.pulses(settlePulses)); err != nil {
		return err
	}
	for _, b := range Stuff(frame.payload) {
		if err := e.SendByte(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// SendByte transmits a single byte: the inter-byte gap, the start pulse
// and 8 data bits.
func (e *Encoder) SendByte(ctx context.Context, b byte) error {
	if glog.V(3) {
		glog.Infof("%s: TX %02x", e.Device, b)
	}
	if err := e.assert(ctx, e.Config.LowVoltage, e.Config.pulses(gapPulses)); err != nil {
		return err
	}
	if err := e.assert(ctx, e.Config.HighVoltage, e.Config.PulseWidth); err != nil {
		return err
	}
	for _, bit := range Bits(b) {
		if err := e.assert(ctx, e.Config.Level(bit), e.Config.PulseWidth); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) assert(ctx context.Context, voltage float64, d time.Duration) error {
	e.Bus.SetVoltage(e.Device, voltage)
	if err := e.Clock.Sleep(ctx, d); err != nil {
		return &TransmissionError{Device: e.Device, Err: err}
	}
	return nil
}
