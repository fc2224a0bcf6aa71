package framework

import (
	"context"
	"time"
)

// Named is implemented by components reporting a name in logs and errors.
type Named interface {
	Name() string
}

// Runnable is a component running in background until ctx is done.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Stopper releases what a Runnable holds after Run returns,
// e.g. an endpoint detaching from the wire.
type Stopper interface {
	Stop() error
}

// TimeSource tells the current time.
type TimeSource interface {
	Time() time.Time
}

// Clock is a TimeSource which is also able to wait.
// All timing of the wire protocol goes through a Clock so a simulated
// clock can replace wall-clock time.
type Clock interface {
	TimeSource
	// Sleep blocks for d. It returns ctx.Err() if ctx is done first,
	// or a non-nil error if the wait is interrupted.
	Sleep(ctx context.Context, d time.Duration) error
}

// Controller is invoked once per Loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// ControlContext describes the running iteration.
type ControlContext interface {
	TimeSource
	Context() context.Context
	PriorityLevel() int
}

// PriorityLevels is the number of priority levels in a Loop.
// Lower levels run first in every iteration.
const PriorityLevels int = 16

// Priority levels used by wire components: probes sample the wire
// before devices drive it for the next interval.
const (
	PrLvSense   int = 4
	PrLvControl int = 8
	PrLvAcuate  int = 12
)
