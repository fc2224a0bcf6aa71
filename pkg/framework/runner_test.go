package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stopRecorder struct {
	name    string
	runErr  error
	stopErr error
	stopped chan struct{}
}

func (r *stopRecorder) Name() string { return r.name }

func (r *stopRecorder) Run(ctx context.Context) error {
	<-ctx.Done()
	return r.runErr
}

func (r *stopRecorder) Stop() error {
	close(r.stopped)
	return r.stopErr
}

func TestRunnerStopsAfterRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.TODO())
	detached := &stopRecorder{name: "nic-a", runErr: context.Canceled, stopped: make(chan struct{})}
	failed := &stopRecorder{name: "nic-b", runErr: context.Canceled, stopErr: errors.New("busy"), stopped: make(chan struct{})}
	runner := NewRunnerWith(ctx).Go(detached, failed)
	cancel()
	err := runner.Wait()
	<-detached.stopped
	<-failed.stopped
	require.Error(t, err)
	require.Equal(t, "nic-b: busy", err.Error())
}

func TestRunnerNamesErrors(t *testing.T) {
	failure := errors.New("failure")
	err := NewRunner().Go(
		NamedRun("scope-server", RunFunc(func(context.Context) error { return failure })),
		RunFunc(func(context.Context) error { return failure }),
	).Wait()
	require.True(t, errors.Is(err, failure))
	var agg *AggregatedError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Errors, 2)
	msgs := []string{agg.Errors[0].Error(), agg.Errors[1].Error()}
	require.ElementsMatch(t, []string{"scope-server: failure", "#1: failure"}, msgs)
}

type closeRecorder struct {
	closed chan struct{}
}

func (c *closeRecorder) Close() error {
	close(c.closed)
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	closer := &closeRecorder{closed: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.TODO())
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunWithContextCloser(ctx, closer, func() error {
			<-closer.closed
			return errors.New("server closed")
		})
	}()
	cancel()
	require.Equal(t, context.Canceled, <-errCh)

	closer = &closeRecorder{closed: make(chan struct{})}
	require.NoError(t, RunWithContextCloser(context.TODO(), closer, func() error { return nil }))
	<-closer.closed
}
