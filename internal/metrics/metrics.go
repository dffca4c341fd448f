package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pairchat_ws_connections_active",
			Help: "Currently open WebSocket connections",
		},
	)

	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairchat_ws_connections_rejected_total",
			Help: "Connection attempts rejected before the handshake",
		},
		[]string{"reason"}, // "unauthorized", "bad_peer", "peer_not_found", "not_participant"
	)

	MessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairchat_messages_relayed_total",
			Help: "Messages persisted and fanned out to a room",
		},
	)

	BroadcastDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairchat_broadcast_drops_total",
			Help: "Subscribers dropped for a full send buffer during fan-out",
		},
	)

	ReplayDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairchat_replay_drops_total",
			Help: "Replay frames dropped on connect because the send buffer was full",
		},
	)

	CacheReplaySkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairchat_cache_replay_skips_total",
			Help: "Cached entries skipped during replay because they failed to decode",
		},
	)
)
