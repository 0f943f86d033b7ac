package transport

import (
	"errors"
	"fmt"
	"io"

	"github.com/roboricindustries/raycon-publisher/pkg/destination"
)

// Router picks the transport for a destination kind. It is built once and
// read-only afterwards.
type Router struct {
	routes map[destination.Kind]Transport
}

func NewRouter() *Router {
	return &Router{routes: make(map[destination.Kind]Transport)}
}

func (r *Router) Handle(kind destination.Kind, t Transport) *Router {
	r.routes[kind] = t
	return r
}

// For never returns nil: an unrouted kind gets a transport that always fails.
func (r *Router) For(kind destination.Kind) Transport {
	if t, ok := r.routes[kind]; ok && t != nil {
		return t
	}
	return Unavailable(fmt.Errorf("%w for %s destinations", ErrNoTransport, kind))
}

// Close releases every routed transport that holds resources. A transport
// routed under several kinds is closed once.
func (r *Router) Close() error {
	var errs []error
	seen := make(map[io.Closer]bool)
	for _, kind := range destination.Kinds() {
		c, ok := r.routes[kind].(io.Closer)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s transport: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}
