package phy

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/wire.go/pkg/framework"
)

// DecodeState is the state of a Deframer.
type DecodeState int

const (
	// DecodeIdle waits for a start pulse.
	DecodeIdle DecodeState = iota
	// DecodeReceivingByte collects the data bits of a byte.
	DecodeReceivingByte
)

// String implements fmt.Stringer.
func (s DecodeState) String() string {
	if s == DecodeReceivingByte {
		return "receiving"
	}
	return "idle"
}

// SampleResult indicates the result after one sample.
type SampleResult struct {
	State DecodeState
	// HasByte is set when a byte has been assembled by this sample.
	HasByte bool
	Byte    byte
	// Frame is set when this sample completed a frame.
	Frame *Frame
	// Err is set when a partial frame is abandoned.
	Err error
}

// Deframer turns samples into frames. It consumes one sample per pulse
// width and doesn't depend on time itself.
type Deframer struct {
	// InactivitySamples abandons a partial frame after this number of
	// consecutive idle samples. 0 disables it.
	InactivitySamples int
	// MaxPayloadSize abandons a frame growing beyond this size. 0 disables it.
	MaxPayloadSize int

	state     DecodeState
	value     byte
	bits      int
	idle      int
	inFrame   bool
	unstuffer Unstuffer
}

// State gets the current state.
func (d *Deframer) State() DecodeState {
	return d.state
}

// InFrame tells if a frame has started but not completed.
func (d *Deframer) InFrame() bool {
	return d.inFrame
}

// Reset drops everything received.
func (d *Deframer) Reset() {
	d.Resync()
	d.idle, d.inFrame = 0, false
	d.unstuffer.Reset()
}

// Resync drops the byte being received and waits for the next start
// pulse. Bytes of the current frame are kept.
func (d *Deframer) Resync() {
	d.state, d.value, d.bits = DecodeIdle, 0, 0
}

// Sample consumes one sampled bit.
func (d *Deframer) Sample(high bool) (r SampleResult) {
	switch d.state {
	case DecodeIdle:
		if high {
			d.state, d.value, d.bits = DecodeReceivingByte, 0, 0
			d.idle, d.inFrame = 0, true
			break
		}
		if d.inFrame && d.InactivitySamples > 0 {
			if d.idle++; d.idle >= d.InactivitySamples {
				d.Reset()
				r.Err = ErrInactivity
			}
		}
	case DecodeReceivingByte:
		d.value <<= 1
		if high {
			d.value |= 1
		}
		if d.bits++; d.bits < 8 {
			break
		}
		r.HasByte, r.Byte = true, d.value
		d.Resync()
		if d.unstuffer.Feed(r.Byte) {
			r.Frame = NewFrame(d.unstuffer.Payload())
			d.Reset()
		} else if size := len(d.unstuffer.Payload()); d.MaxPayloadSize > 0 && size > d.MaxPayloadSize {
			d.Reset()
			r.Err = &PayloadTooLargeError{Size: size, Max: d.MaxPayloadSize}
		}
	}
	r.State = d.state
	return
}

// Decoder samples a Bus every pulse width and reconstructs frames.
type Decoder struct {
	Device string
	Bus    Bus
	Clock  fx.Clock
	Config *Config

	deframer Deframer
	// sampling keeps the phase of the first Receive for later ones.
	sampling bool
}

// Receive blocks until a complete frame is decoded or ctx is done.
// No sample is taken after the terminator. Consecutive calls keep
// sampling once per pulse width from where the previous one stopped.
func (d *Decoder) Receive(ctx context.Context) (*Frame, error) {
	d.deframer.Reset()
	d.deframer.InactivitySamples = d.Config.inactivitySamples()
	d.deframer.MaxPayloadSize = d.Config.MaxPayloadSize
	wait := d.Config.PulseWidth
	if !d.sampling {
		wait, d.sampling = d.Config.sampleDelay(), true
	}
	for {
		if err := d.Clock.Sleep(ctx, wait); err != nil {
			if ctx.Err() != nil {
				d.sampling = false
				return nil, ctx.Err()
			}
			glog.Warningf("%s: %v: %v, resync", d.Device, ErrReceiveInterrupted, err)
			d.deframer.Resync()
			wait = d.Config.PulseWidth
			continue
		}
		wait = d.Config.PulseWidth
		r := d.deframer.Sample(BitFromVoltage(d.Bus.Voltage(d.Device)))
		if r.HasByte {
			if glog.V(3) {
				glog.Infof("%s: RX %02x", d.Device, r.Byte)
			}
		}
		if r.Err != nil {
			glog.Warningf("%s: partial frame dropped: %v", d.Device, r.Err)
		}
		if r.Frame != nil {
			return r.Frame, nil
		}
	}
}
