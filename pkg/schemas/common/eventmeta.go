package common

type EventMeta struct {
	EventType  string // e.g. "publish.outcome.v1"
	Exchange   string // e.g. "publish.events"
	RoutingKey string // e.g. "publish.outcome.live"
}

// WithRoutingKey returns a copy routed under key.
func (m EventMeta) WithRoutingKey(key string) EventMeta {
	m.RoutingKey = key
	return m
}
