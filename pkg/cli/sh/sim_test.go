package sh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/wire.go/pkg/framework"
	"github.com/robotalks/wire.go/pkg/phy"
)

type received struct {
	device string
	frame  *phy.Frame
}

func TestSimAttachDetach(t *testing.T) {
	sim := NewSim(phy.NewConfig())
	sim.Clock = fx.NewSimClock(time.Unix(0, 0))
	_, err := sim.Attach("A")
	require.NoError(t, err)
	_, err = sim.Attach("A")
	require.Error(t, err)
	_, err = sim.Attach(NoiseDevice)
	require.Error(t, err)
	_, err = sim.Attach("B")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, sim.Endpoints())

	require.NoError(t, sim.Detach("A"))
	require.Error(t, sim.Detach("A"))
	require.Equal(t, []string{"B"}, sim.Endpoints())
	_, err = sim.Endpoint("A")
	require.Error(t, err)
	require.Error(t, sim.Send(context.TODO(), "A", []byte{1}))
	require.NoError(t, sim.Close())
	require.Empty(t, sim.Endpoints())
}

func TestSimNoise(t *testing.T) {
	sim := NewSim(phy.NewConfig())
	now := time.Unix(0, 0)
	sim.Loop.RunIteration(context.TODO(), now)
	require.NotContains(t, sim.Medium.Devices(), NoiseDevice)

	sim.SetNoise(0.1)
	sim.Loop.RunIteration(context.TODO(), now)
	require.Contains(t, sim.Medium.Devices(), NoiseDevice)
	// the scope samples before the noise is asserted in an iteration.
	voltage := sim.Medium.Voltage(NoiseDevice)
	sim.Loop.RunIteration(context.TODO(), now)
	history := sim.Scope.History()
	require.Len(t, history, 3)
	require.Equal(t, voltage, history[2].Voltage)

	sim.SetNoise(0)
	require.NotContains(t, sim.Medium.Devices(), NoiseDevice)
}

func TestSimTransfer(t *testing.T) {
	clock := fx.NewSimClock(time.Unix(0, 0))
	sim := NewSim(phy.NewConfig())
	sim.Clock = clock
	frameCh := make(chan received, 4)
	sim.OnFrame = func(device string, frame *phy.Frame) {
		frameCh <- received{device: device, frame: frame}
	}
	for _, name := range []string{"A", "B"} {
		_, err := sim.Attach(name)
		require.NoError(t, err)
	}
	defer sim.Close()

	<-clock.Waiters(2)
	sendCh := make(chan error, 1)
	go func() { sendCh <- sim.Send(context.TODO(), "A", []byte("hi")) }()

	var frame *phy.Frame
	timeout := time.After(5 * time.Second)
	for frame == nil || sendCh != nil {
		participants := 2
		if sendCh != nil {
			participants++
		}
		select {
		case err := <-sendCh:
			require.NoError(t, err)
			sendCh = nil
		case r := <-frameCh:
			if r.device == "B" {
				frame = r.frame
			}
		case <-clock.Waiters(participants):
			clock.Step()
		case <-timeout:
			t.Fatal("transfer timeout")
		}
	}
	require.Equal(t, []byte("hi"), frame.Payload())
}

func TestParsePayload(t *testing.T) {
	testCases := []struct {
		args    []string
		payload []byte
		valid   bool
	}{
		{[]string{"hello", "world"}, []byte("hello world"), true},
		{[]string{"0x417e"}, []byte{0x41, 0x7e}, true},
		{[]string{"0X41", "7d"}, []byte{0x41, 0x7d}, true},
		{[]string{"0x4"}, nil, false},
		{nil, []byte{}, true},
	}
	for _, tc := range testCases {
		payload, err := ParsePayload(tc.args)
		if !tc.valid {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.payload, payload)
	}
}

func TestSimLoopOnClock(t *testing.T) {
	start := time.Unix(0, 0)
	clock := fx.NewSimClock(start)
	sim := NewSim(phy.NewConfig())
	sim.Clock = clock
	sim.SetNoise(0.1)
	sim.Start(context.TODO())
	defer sim.Close()

	for n := 1; n <= 2; n++ {
		<-clock.Waiters(1)
		clock.Step()
	}
	<-clock.Waiters(1)
	history := sim.Scope.History()
	require.Len(t, history, 2)
	require.Equal(t, start.Add(sim.Loop.Interval), history[0].Time)
	require.Contains(t, sim.Medium.Devices(), NoiseDevice)
}
