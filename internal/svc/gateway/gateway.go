package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/hirebridge/api/internal/events"
	"github.com/hirebridge/api/internal/instance"
	"github.com/hirebridge/api/internal/svc/presences"
	"go.uber.org/zap"
)

// ErrTransportNotInitialized is returned when Deliver is called before a transport was attached.
var ErrTransportNotInitialized = errors.New("gateway: no transport attached")

// Transport writes frames to open connections.
type Transport interface {
	// Send queues a frame for the connection without blocking.
	// It fails when the connection is gone or cannot accept more frames.
	Send(connectionID string, frame []byte) error
}

// Gateway pushes events to users that are currently connected.
//
// Delivery is at-most-once: an event for an offline or saturated recipient is dropped,
// never queued or retried. Producers persist the document before calling Deliver, so a
// recipient that misses the push still finds it on their next fetch.
type Gateway interface {
	AttachTransport(t Transport)
	Deliver(ctx context.Context, userID string, body events.Body) (bool, error)
}

type Options struct {
	Presences  presences.Directory
	Prometheus instance.Prometheus
	Transport  Transport
}

type gatewayInst struct {
	presences  presences.Directory
	prometheus instance.Prometheus

	mx        sync.RWMutex
	transport Transport
}

func New(opt Options) Gateway {
	return &gatewayInst{
		presences:  opt.Presences,
		prometheus: opt.Prometheus,
		transport:  opt.Transport,
	}
}

func (g *gatewayInst) AttachTransport(t Transport) {
	g.mx.Lock()
	g.transport = t
	g.mx.Unlock()
}

const (
	resultDelivered = "delivered"
	resultOffline   = "offline"
	resultDropped   = "dropped"
)

func (g *gatewayInst) Deliver(ctx context.Context, userID string, body events.Body) (bool, error) {
	g.mx.RLock()
	t := g.transport
	g.mx.RUnlock()

	if t == nil {
		return false, ErrTransportNotInitialized
	}

	kind := string(body.EventKind())

	connectionID, ok := g.presences.Lookup(userID)
	if !ok {
		g.record(kind, resultOffline)

		return false, nil
	}

	msg, err := events.NewDispatch(body)
	if err != nil {
		return false, err
	}

	frame, err := msg.Encode()
	if err != nil {
		return false, err
	}

	if err := t.Send(connectionID, frame); err != nil {
		zap.S().Debugw("push dropped",
			"user_id", userID,
			"connection_id", connectionID,
			"kind", kind,
			"error", err,
		)

		g.record(kind, resultDropped)

		return false, nil
	}

	g.record(kind, resultDelivered)

	return true, nil
}

func (g *gatewayInst) record(kind, result string) {
	if g.prometheus != nil {
		g.prometheus.Delivery(kind, result)
	}
}
