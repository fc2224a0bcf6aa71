package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"net/http"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/wire.go/pkg/bridge/mqtt"
	"github.com/robotalks/wire.go/pkg/bridge/websocket"
	"github.com/robotalks/wire.go/pkg/env"
	fx "github.com/robotalks/wire.go/pkg/framework"
	"github.com/robotalks/wire.go/pkg/phy"
	"github.com/robotalks/wire.go/pkg/scope"
)

var (
	endpointNames string
	noiseStdDev   float64
)

func init() {
	env.SetupFlags()
	phy.SetupFlags()
	flag.StringVar(&endpointNames, "endpoints", endpointNames, "Comma separated names of endpoints, default derived from machine id.")
	flag.Float64Var(&noiseStdDev, "noise", noiseStdDev, "Standard deviation of thermal noise, 0 disables.")
}

func logFrame(device string) phy.FrameListener {
	return phy.ReceiveFrameFunc(func(ctx context.Context, frame *phy.Frame) {
		glog.Infof("%s received %s", device, frame)
	})
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := phy.NewConfig()
	conf.Continuous = true
	if err := conf.Validate(); err != nil {
		glog.Exit(err)
	}
	envConf := env.Default()

	medium := phy.NewMedium()
	runner := fx.NewRunner().HandleSignals()

	var bridge *mqtt.Bridge
	if envConf.MQTTBrokerURL != "" {
		q, err := mqtt.NewQueueFromURL(envConf.MQTTBrokerURL)
		if err != nil {
			glog.Exitf("invalid MQTT URL: %v", err)
		}
		if err := q.Connect(); err != nil {
			glog.Exitf("MQTT connect: %v", err)
		}
		defer q.Close()
		bridge = mqtt.NewBridge(q)
	}

	names := strings.Split(endpointNames, ",")
	if endpointNames == "" {
		names = []string{env.DeviceName("nic-")}
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		listener := logFrame(name)
		if bridge != nil {
			listener = bridge.Listener(name)
		}
		ep, err := conf.NewEndpoint(name, medium, listener)
		if err != nil {
			glog.Exit(err)
		}
		if bridge != nil {
			bridge.Expose(ep)
		}
		runner.Go(ep)
		glog.Infof("%s attached", name)
	}
	if bridge != nil {
		runner.Go(bridge)
	}

	loop := fx.NewLoop()
	loop.Interval = conf.PulseWidth / 2
	if noiseStdDev > 0 {
		loop.Add(phy.NewNoise("Thermal Noise", medium, noiseStdDev))
	}
	probe := scope.New(medium)
	probe.Detail = true
	loop.Add(probe)
	runner.Go(fx.NamedRun("loop", loop))

	if envConf.ScopeAddr != "" {
		server := &http.Server{Addr: envConf.ScopeAddr, Handler: websocket.NewHandler(probe)}
		runner.Go(fx.NamedRun("scope-server", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, server, func() error {
				glog.Infof("scope server listening on %s", server.Addr)
				if err := server.ListenAndServe(); err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		})))
	}

	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
