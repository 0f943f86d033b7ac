package publication

import "github.com/roboricindustries/raycon-publisher/pkg/schemas/common"

const (
	OutcomeEventType   = "publish.outcome.v1"
	PayloadEventType   = "publish.payload.v1"
	EventsExchange     = "publish.events"
	RelayExchange      = "publish.relay"
	RoutingKeyLive     = "publish.outcome.live"
	RoutingKeyFallback = "publish.outcome.fallback"
)

var (
	outcomeMeta = common.EventMeta{EventType: OutcomeEventType, Exchange: EventsExchange, RoutingKey: RoutingKeyLive}
	relayMeta   = common.EventMeta{EventType: PayloadEventType, Exchange: RelayExchange}
)

func OutcomeMeta(fallback bool) common.EventMeta {
	if fallback {
		return outcomeMeta.WithRoutingKey(RoutingKeyFallback)
	}
	return outcomeMeta
}

// RelayMeta routes a payload for a destination kind through the broker.
func RelayMeta(kind string) common.EventMeta {
	return relayMeta.WithRoutingKey("publish." + kind)
}
