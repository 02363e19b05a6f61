package realtime

import (
	"go.uber.org/zap"

	"github.com/orbitlabs/orbit/backend/pkg/logger"
	"github.com/orbitlabs/orbit/backend/pkg/metrics"
)

// Dispatcher fans out mutation results to connected recipients. It is a pure
// consumer of "event + recipient": offline recipients are silently dropped
// (clients pull state on reconnect), and no delivery failure ever reaches
// the mutating caller.
type Dispatcher struct {
	registry *Registry
	hub      *Hub
}

// NewDispatcher creates a dispatcher over the hub's registry.
func NewDispatcher(hub *Hub) *Dispatcher {
	return &Dispatcher{registry: hub.registry, hub: hub}
}

// EmitTo delivers one event to one user, if that user is online.
func (d *Dispatcher) EmitTo(userID, event string, payload interface{}) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		logger.Get().Error("marshaling event", zap.String("event", event), zap.Error(err))
		metrics.EventsEmitted.WithLabelValues(event, "error").Inc()
		return
	}

	client, ok := d.registry.Lookup(userID)
	if !ok {
		metrics.EventsEmitted.WithLabelValues(event, "offline").Inc()
		return
	}
	if !client.enqueue(frame) {
		logger.Get().Warn("event dropped for slow client",
			zap.String("event", event), zap.String("user", userID))
		metrics.EventsEmitted.WithLabelValues(event, "dropped").Inc()
		return
	}
	metrics.EventsEmitted.WithLabelValues(event, "delivered").Inc()
}

// Broadcast delivers one event to every connected client (public feed
// events and the online-user set).
func (d *Dispatcher) Broadcast(event string, payload interface{}) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		logger.Get().Error("marshaling broadcast", zap.String("event", event), zap.Error(err))
		metrics.EventsEmitted.WithLabelValues(event, "error").Inc()
		return
	}
	d.hub.Broadcast(frame)
	metrics.EventsEmitted.WithLabelValues(event, "broadcast").Inc()
}
