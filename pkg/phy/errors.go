package phy

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge indicates a frame exceeds the maximum payload size.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrTransmissionInterrupted indicates a send was aborted midway and
	// the device may still assert a stale voltage.
	ErrTransmissionInterrupted = errors.New("transmission interrupted")
	// ErrReceiveInterrupted indicates a sampling wait failed.
	ErrReceiveInterrupted = errors.New("receive interrupted")
	// ErrInactivity indicates a partial frame was abandoned.
	ErrInactivity = errors.New("inactivity timeout")
	// ErrInvalidConfig indicates invalid timing or voltage settings.
	ErrInvalidConfig = errors.New("invalid config")
)

// PayloadTooLargeError is returned by Send before touching the wire.
type PayloadTooLargeError struct {
	Size int
	Max  int
}

// Error implements error.
func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %d > %d bytes", e.Size, e.Max)
}

// Is matches ErrPayloadTooLarge.
func (e *PayloadTooLargeError) Is(target error) bool {
	return target == ErrPayloadTooLarge
}

// TransmissionError wraps the failure of a timed wait during Send.
type TransmissionError struct {
	Device string
	Err    error
}

// Error implements error.
func (e *TransmissionError) Error() string {
	return fmt.Sprintf("%s: transmission interrupted: %v", e.Device, e.Err)
}

// Is matches ErrTransmissionInterrupted.
func (e *TransmissionError) Is(target error) bool {
	return target == ErrTransmissionInterrupted
}

// Unwrap returns the wait error.
func (e *TransmissionError) Unwrap() error {
	return e.Err
}
