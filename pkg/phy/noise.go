package phy

import (
	"gonum.org/v1/gonum/stat/distuv"

	fx "github.com/robotalks/wire.go/pkg/framework"
)

// Noise is a device asserting random gaussian voltages on a Bus.
type Noise struct {
	Device string
	Bus    Bus
	StdDev float64

	dist distuv.Normal
}

// NewNoise creates a Noise device.
func NewNoise(device string, bus Bus, stddev float64) *Noise {
	return &Noise{Device: device, Bus: bus, StdDev: stddev}
}

// AddToLoop implements LoopAdder.
func (n *Noise) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvAcuate, n)
}

// Control implements Controller, asserting a new random voltage.
func (n *Noise) Control(fx.ControlContext) error {
	n.Bus.SetVoltage(n.Device, n.Next())
	return nil
}

// Next draws a voltage.
func (n *Noise) Next() float64 {
	if n.StdDev <= 0 {
		return 0
	}
	n.dist.Mu, n.dist.Sigma = 0, n.StdDev
	return n.dist.Rand()
}
