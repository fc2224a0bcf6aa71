package sh

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/wire.go/pkg/framework"
	"github.com/robotalks/wire.go/pkg/phy"
	"github.com/robotalks/wire.go/pkg/scope"
)

// NoiseDevice is the device name of the noise source.
const NoiseDevice = "Thermal Noise"

// ReceivedFunc is called when an attached endpoint receives a frame.
type ReceivedFunc func(device string, frame *phy.Frame)

// Sim is an in-process wire with endpoints attached.
type Sim struct {
	Config  *phy.Config
	Medium  *phy.Medium
	Scope   *scope.Scope
	Loop    *fx.Loop
	OnFrame ReceivedFunc
	// Clock used by attached endpoints, RealClock if nil.
	Clock fx.Clock

	ctx       context.Context
	cancel    func()
	endpoints map[string]*phy.Endpoint
	noise     *phy.Noise
	lock      sync.Mutex
}

// NewSim creates a Sim. Endpoints receive continuously.
func NewSim(conf *phy.Config) *Sim {
	c := *conf
	c.Continuous = true
	s := &Sim{
		Config:    &c,
		Medium:    phy.NewMedium(),
		Loop:      fx.NewLoop(),
		endpoints: make(map[string]*phy.Endpoint),
	}
	s.Scope = scope.New(s.Medium)
	s.Loop.Interval = c.PulseWidth / 2
	s.Loop.AddController(fx.PrLvAcuate, fx.ControlFunc(s.controlNoise))
	s.Loop.Add(s.Scope)
	return s
}

// Start runs the loop in background, on Clock if set.
func (s *Sim) Start(ctx context.Context) {
	if s.Clock != nil {
		s.Loop.Clock = s.Clock
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	go s.Loop.RunOrFail(s.ctx)
}

// Close stops all endpoints and the loop.
func (s *Sim) Close() error {
	s.lock.Lock()
	names := make([]string, 0, len(s.endpoints))
	for name := range s.endpoints {
		names = append(names, name)
	}
	s.lock.Unlock()
	errs := &fx.AggregatedError{}
	for _, name := range names {
		errs.Add(s.Detach(name))
	}
	if s.cancel != nil {
		s.cancel()
	}
	return errs.Aggregate()
}

// Attach creates an endpoint and starts receiving.
func (s *Sim) Attach(name string) (*phy.Endpoint, error) {
	if name == NoiseDevice {
		return nil, fmt.Errorf("%q is reserved", name)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.endpoints[name]; ok {
		return nil, fmt.Errorf("%q already attached", name)
	}
	ep, err := s.Config.NewEndpoint(name, s.Medium, phy.ReceiveFrameFunc(func(ctx context.Context, frame *phy.Frame) {
		if s.OnFrame != nil {
			s.OnFrame(name, frame)
		}
	}))
	if err != nil {
		return nil, err
	}
	if s.Clock != nil {
		ep.Clock = s.Clock
	}
	s.endpoints[name] = ep
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ep.Start(ctx)
	glog.Infof("%s attached", name)
	return ep, nil
}

// Detach stops an endpoint and removes it from the wire.
func (s *Sim) Detach(name string) error {
	s.lock.Lock()
	ep, ok := s.endpoints[name]
	delete(s.endpoints, name)
	s.lock.Unlock()
	if !ok {
		return fmt.Errorf("%q not attached", name)
	}
	glog.Infof("%s detached", name)
	return ep.Stop()
}

// Endpoint finds an attached endpoint.
func (s *Sim) Endpoint(name string) (*phy.Endpoint, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	ep, ok := s.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("%q not attached", name)
	}
	return ep, nil
}

// Endpoints lists names of attached endpoints.
func (s *Sim) Endpoints() []string {
	s.lock.Lock()
	names := make([]string, 0, len(s.endpoints))
	for name := range s.endpoints {
		names = append(names, name)
	}
	s.lock.Unlock()
	sort.Strings(names)
	return names
}

// Send transmits payload from endpoint name.
func (s *Sim) Send(ctx context.Context, name string, payload []byte) error {
	ep, err := s.Endpoint(name)
	if err != nil {
		return err
	}
	return ep.Send(ctx, phy.NewFrame(payload))
}

// SetNoise sets the deviation of the noise source. 0 removes it.
func (s *Sim) SetNoise(stddev float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if stddev <= 0 {
		s.noise = nil
		s.Medium.Detach(NoiseDevice)
		return
	}
	s.noise = phy.NewNoise(NoiseDevice, s.Medium, stddev)
}

func (s *Sim) controlNoise(cc fx.ControlContext) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.noise != nil {
		return s.noise.Control(cc)
	}
	return nil
}
