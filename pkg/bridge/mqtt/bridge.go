// Package mqtt bridges endpoints on a simulated wire to an MQTT broker.
//
// Frames received by an endpoint are published to frames/<endpoint>, and
// frames published to send/<endpoint> are transmitted by that endpoint.
// Payloads are protobuf encoded BytesValue messages.
package mqtt

import (
	"context"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes/wrappers"

	fx "github.com/robotalks/wire.go/pkg/framework"
	"github.com/robotalks/wire.go/pkg/phy"
)

// Topics relative to the queue prefix.
const (
	FramesTopic = "frames/"
	SendTopic   = "send/"
)

// DefaultSendQueueSize is the number of frames waiting for transmission.
const DefaultSendQueueSize = 16

// Sender transmits frames. phy.Endpoint implements it.
type Sender interface {
	fx.Named
	Send(context.Context, *phy.Frame) error
}

type sendRequest struct {
	sender Sender
	frame  *phy.Frame
}

// Bridge connects endpoints with a Queue.
type Bridge struct {
	Queue *Queue

	sendCh chan sendRequest
	subs   []*Subscription
}

// NewBridge creates a Bridge.
func NewBridge(q *Queue) *Bridge {
	return &Bridge{Queue: q, sendCh: make(chan sendRequest, DefaultSendQueueSize)}
}

// EncodeFrame encodes a frame as MQTT payload.
func EncodeFrame(frame *phy.Frame) ([]byte, error) {
	return proto.Marshal(&wrappers.BytesValue{Value: frame.Payload()})
}

// DecodeFrame decodes MQTT payload into a frame.
func DecodeFrame(data []byte) (*phy.Frame, error) {
	var msg wrappers.BytesValue
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return phy.NewFrame(msg.Value), nil
}

// Name implements Named.
func (b *Bridge) Name() string {
	return "mqtt-bridge"
}

// Listener returns a FrameListener publishing frames received by device.
func (b *Bridge) Listener(device string) phy.FrameListener {
	return phy.ReceiveFrameFunc(func(ctx context.Context, frame *phy.Frame) {
		payload, err := EncodeFrame(frame)
		if err != nil {
			glog.Errorf("%s: encode frame error: %v", device, err)
			return
		}
		b.Queue.Pub(FramesTopic+device, payload)
	})
}

// Expose transmits frames published to the send topic of sender.
func (b *Bridge) Expose(sender Sender) *Subscription {
	name := sender.Name()
	sub := b.Queue.Sub(SendTopic+name, func(topic string, payload []byte) {
		frame, err := DecodeFrame(payload)
		if err != nil {
			glog.Warningf("%s: bad frame: %v", topic, err)
			return
		}
		select {
		case b.sendCh <- sendRequest{sender: sender, frame: frame}:
		default:
			glog.Warningf("%s: send queue full, frame dropped", name)
		}
	})
	b.subs = append(b.subs, sub)
	return sub
}

// Run implements Runnable. Frames are transmitted one at a time.
func (b *Bridge) Run(ctx context.Context) error {
	defer func() {
		for _, sub := range b.subs {
			sub.Close()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-b.sendCh:
			if err := req.sender.Send(ctx, req.frame); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				glog.Errorf("%s: send error: %v", req.sender.Name(), err)
			}
		}
	}
}
