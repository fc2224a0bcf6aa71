package phy

import (
	"context"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/wire.go/pkg/framework"
)

// Endpoint is a network card attached to a Bus. It sends frames and,
// when a listener is present, receives them in the background.
type Endpoint struct {
	Bus      Bus
	Listener FrameListener
	Clock    fx.Clock
	Config   Config

	name     string
	sendLock sync.Mutex
	cancel   func()
	doneCh   chan error
}

// NewEndpoint creates an Endpoint with default config.
func NewEndpoint(name string, bus Bus, listener FrameListener) *Endpoint {
	return &Endpoint{
		Bus:      bus,
		Listener: listener,
		Clock:    fx.RealClock,
		Config:   *NewConfig(),
		name:     name,
	}
}

// Name implements Named.
func (e *Endpoint) Name() string {
	return e.name
}

// Send transmits a frame. It blocks until the whole frame is on the
// wire. Concurrent calls on the same Endpoint are serialized.
func (e *Endpoint) Send(ctx context.Context, frame *Frame) error {
	e.sendLock.Lock()
	defer e.sendLock.Unlock()
	enc := &Encoder{Device: e.name, Bus: e.Bus, Clock: e.Clock, Config: &e.Config}
	err := enc.Send(ctx, frame)
	if err == nil && frame != nil {
		glog.V(2).Infof("%s: sent %d bytes", e.name, frame.Len())
	}
	return err
}

// Run implements Runnable. It receives frames and hands them to the
// listener: a single frame, or frames until ctx is done when Continuous
// is set. Without a listener it returns immediately.
func (e *Endpoint) Run(ctx context.Context) error {
	if e.Listener == nil {
		return nil
	}
	dec := &Decoder{Device: e.name, Bus: e.Bus, Clock: e.Clock, Config: &e.Config}
	for {
		frame, err := dec.Receive(ctx)
		if err != nil {
			return err
		}
		glog.V(2).Infof("%s: received %d bytes", e.name, frame.Len())
		e.Listener.ReceiveFrame(ctx, frame)
		if !e.Config.Continuous {
			return nil
		}
	}
}

// Start runs the receive loop in the background if a listener is present.
func (e *Endpoint) Start(ctx context.Context) *Endpoint {
	if e.Listener == nil || e.doneCh != nil {
		return e
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.doneCh = make(chan error, 1)
	go func(doneCh chan<- error) {
		doneCh <- e.Run(ctx)
	}(e.doneCh)
	return e
}

// Done returns a chan receiving the result of the background receive
// loop, or nil if it was not started.
func (e *Endpoint) Done() <-chan error {
	return e.doneCh
}

// Stop cancels the background receive loop, waits for it and detaches
// the Endpoint from the Bus.
func (e *Endpoint) Stop() error {
	var err error
	if e.doneCh != nil {
		e.cancel()
		if err = <-e.doneCh; err == context.Canceled {
			err = nil
		}
		e.doneCh, e.cancel = nil, nil
	}
	if d, ok := e.Bus.(Detacher); ok {
		d.Detach(e.name)
	}
	return err
}
