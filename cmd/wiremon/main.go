package main

import (
	"flag"
	"log"
	"strings"

	"github.com/robotalks/wire.go/pkg/bridge/mqtt"
	"github.com/robotalks/wire.go/pkg/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(env.Default().MQTTBrokerURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		frame, err := mqtt.DecodeFrame(payload)
		if err != nil {
			log.Printf("%s: bad frame: %v", topic, err)
			return
		}
		switch {
		case strings.HasPrefix(topic, mqtt.FramesTopic):
			log.Printf("%s received %s %q", topic[len(mqtt.FramesTopic):], frame, frame.Payload())
		case strings.HasPrefix(topic, mqtt.SendTopic):
			log.Printf("%s sending %s %q", topic[len(mqtt.SendTopic):], frame, frame.Payload())
		default:
			log.Printf("%s: %s", topic, frame)
		}
	}))
	<-(chan struct{})(nil)
}
