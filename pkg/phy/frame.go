package phy

import (
	"context"
	"encoding/hex"
)

// Frame is an immutable payload transferred over the wire.
type Frame struct {
	payload []byte
}

// NewFrame creates a Frame with a copy of payload.
func NewFrame(payload []byte) *Frame {
	f := &Frame{payload: make([]byte, len(payload))}
	copy(f.payload, payload)
	return f
}

// Payload returns a copy of the payload.
func (f *Frame) Payload() []byte {
	payload := make([]byte, len(f.payload))
	copy(payload, f.payload)
	return payload
}

// Len returns the payload size.
func (f *Frame) Len() int {
	return len(f.payload)
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return hex.EncodeToString(f.payload)
}

// FrameListener is called when a frame is received.
type FrameListener interface {
	ReceiveFrame(context.Context, *Frame)
}

// ReceiveFrameFunc is func type of FrameListener.
type ReceiveFrameFunc func(context.Context, *Frame)

// ReceiveFrame implements FrameListener.
func (f ReceiveFrameFunc) ReceiveFrame(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}
