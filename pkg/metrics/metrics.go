package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WSConnections tracks currently open websocket sessions.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orbit_ws_connections",
		Help: "Number of currently connected websocket clients.",
	})

	// EventsEmitted counts realtime events pushed to clients, by event name
	// and outcome (delivered or dropped).
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_events_emitted_total",
		Help: "Realtime events emitted through the dispatcher.",
	}, []string{"event", "outcome"})

	// GraphMutations counts social-graph operations by name and result.
	GraphMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_graph_mutations_total",
		Help: "Friend/follow graph mutations applied.",
	}, []string{"op", "result"})

	// MessagesSent counts chat messages persisted.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_chat_messages_sent_total",
		Help: "Chat messages appended to threads.",
	})
)
