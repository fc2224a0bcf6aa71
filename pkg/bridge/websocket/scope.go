// Package websocket streams scope samples to websocket clients.
package websocket

import (
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/wire.go/pkg/scope"
)

// DefaultBacklog is the number of samples buffered per client.
const DefaultBacklog = 64

// SampleWriter writes samples to a websocket connection as JSON.
type SampleWriter websocket.Conn

// NewSampleWriter wraps websocket.Conn.
func NewSampleWriter(conn *websocket.Conn) *SampleWriter {
	return (*SampleWriter)(conn)
}

// WriteSample implements scope.Sink.
func (w *SampleWriter) WriteSample(s scope.Sample) error {
	return websocket.JSON.Send((*websocket.Conn)(w), s)
}

// ReadSample reads a sample written by WriteSample.
func (w *SampleWriter) ReadSample() (s scope.Sample, err error) {
	err = websocket.JSON.Receive((*websocket.Conn)(w), &s)
	return
}

// Handler serves samples captured by a Scope.
type Handler struct {
	Scope   *scope.Scope
	Backlog int
}

// NewHandler creates a Handler.
func NewHandler(s *scope.Scope) *Handler {
	return &Handler{Scope: s, Backlog: DefaultBacklog}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serve).ServeHTTP(w, r)
}

func (h *Handler) serve(conn *websocket.Conn) {
	defer conn.Close()
	glog.V(1).Infof("scope client %s connected", conn.Request().RemoteAddr)

	// a slow client must not stall the loop capturing samples.
	samples := make(chan scope.Sample, h.Backlog)
	remove := h.Scope.AddSink(scope.WriteSampleFunc(func(s scope.Sample) error {
		select {
		case samples <- s:
		default:
		}
		return nil
	}))
	defer remove()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}()

	writer := NewSampleWriter(conn)
	for {
		select {
		case <-closed:
			glog.V(1).Infof("scope client %s disconnected", conn.Request().RemoteAddr)
			return
		case s := <-samples:
			if err := writer.WriteSample(s); err != nil {
				glog.Warningf("scope client %s: %v", conn.Request().RemoteAddr, err)
				return
			}
		}
	}
}
