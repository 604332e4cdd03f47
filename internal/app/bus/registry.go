// Package bus holds the routing table shared by the command and query buses.
package bus

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Message is routed by Key, which must be constant per type.
type Message interface {
	Key() string
}

type Route[M Message] func(ctx context.Context, msg M) (any, error)

// Registry maps keys to routes. It is filled while wiring and only read after.
type Registry[M Message] struct {
	kind     string
	notFound error
	routes   map[string]Route[M]
}

// NewRegistry names its panics after kind and wraps notFound for unknown keys.
func NewRegistry[M Message](kind string, notFound error) *Registry[M] {
	return &Registry[M]{kind: kind, notFound: notFound, routes: make(map[string]Route[M])}
}

func (r *Registry[M]) Add(key string, route Route[M]) {
	switch {
	case key == "":
		panic(r.kind + ": empty key registration")
	case route == nil:
		panic(r.kind + ": nil route for " + key)
	}
	if _, dup := r.routes[key]; dup {
		panic(r.kind + ": duplicate registration for " + key)
	}
	r.routes[key] = route
}

func (r *Registry[M]) Route(ctx context.Context, msg M) (any, error) {
	route, ok := r.routes[msg.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", r.notFound, msg.Key())
	}
	return route(ctx, msg)
}

func (r *Registry[M]) Has(key string) bool {
	_, ok := r.routes[key]
	return ok
}

// Keys lists registered keys sorted.
func (r *Registry[M]) Keys() []string {
	return slices.Sorted(maps.Keys(r.routes))
}
