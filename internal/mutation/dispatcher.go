// Package mutation runs client writes and applies the cache invalidations
// declared for them.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/intega/platform/internal/query"
)

// Params fill {name} placeholders in key templates.
type Params map[string]string

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient message about a mutation outcome.
type Notification struct {
	Kind    Kind
	Level   Level
	Message string
	Err     error
}

// Notifier receives mutation outcomes.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Invalidator is the cache surface the dispatcher needs.
type Invalidator interface {
	Invalidate(keys ...string)
	InvalidatePrefix(prefix string)
	Clear()
}

// ErrUnknownKind is returned for a kind missing from the graph.
var ErrUnknownKind = errors.New("unknown mutation kind")

// Dispatcher resolves a mutation kind to its invalidations.
type Dispatcher struct {
	graph    Graph
	cache    Invalidator
	mu       sync.RWMutex
	notifier Notifier
}

// NewDispatcher checks the graph against the registered query keys and the
// known kinds. Every kind needs an entry and every template must be a
// registered key or All.
func NewDispatcher(graph Graph, registered []string, cache Invalidator, notifier Notifier) (*Dispatcher, error) {
	if cache == nil {
		return nil, errors.New("mutation: cache is required")
	}
	known := Kinds()
	var errs []error
	for kind, templates := range graph {
		if !slices.Contains(known, kind) {
			errs = append(errs, fmt.Errorf("graph entry for %w %q", ErrUnknownKind, kind))
		}
		for _, tmpl := range templates {
			if tmpl != All && !slices.Contains(registered, tmpl) {
				errs = append(errs, fmt.Errorf("%s invalidates unregistered key %q", kind, tmpl))
			}
		}
	}
	for _, kind := range known {
		if _, ok := graph[kind]; !ok {
			errs = append(errs, fmt.Errorf("no invalidation entry for %s", kind))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("mutation graph: %w", err)
	}
	return &Dispatcher{graph: graph, cache: cache, notifier: notifier}, nil
}

// SetNotifier replaces the notifier.
func (d *Dispatcher) SetNotifier(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifier = n
}

// Run performs submit and, only if it succeeds, invalidates the keys declared
// for kind. A failure is reported to the notifier and returned unchanged.
func Run[T any](ctx context.Context, d *Dispatcher, kind Kind, params Params, submit func(context.Context) (T, error)) (T, error) {
	var zero T
	if _, ok := d.graph[kind]; !ok {
		return zero, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}

	result, err := submit(ctx)
	if err != nil {
		d.notify(Notification{Kind: kind, Level: LevelError, Message: err.Error(), Err: err})
		return zero, err
	}

	d.apply(kind, params)
	d.notify(Notification{Kind: kind, Level: LevelSuccess})
	return result, nil
}

// Warn reports a client-side rejection that never reached the server.
func (d *Dispatcher) Warn(kind Kind, err error) {
	d.notify(Notification{Kind: kind, Level: LevelWarning, Message: err.Error(), Err: err})
}

// Targets describes what a successful kind would invalidate: exact keys and
// prefixes for templates with missing parameters.
func (d *Dispatcher) Targets(kind Kind, params Params) (keys, prefixes []string, all bool) {
	for _, tmpl := range d.graph[kind] {
		if tmpl == All {
			all = true
			continue
		}
		key, complete := query.Resolve(tmpl, params)
		if complete {
			keys = append(keys, key)
		} else {
			prefixes = append(prefixes, key)
		}
	}
	return keys, prefixes, all
}

func (d *Dispatcher) apply(kind Kind, params Params) {
	keys, prefixes, all := d.Targets(kind, params)
	if all {
		d.cache.Clear()
		return
	}
	// Keys are invalidated one by one; there is no grouping across keys.
	for _, key := range keys {
		d.cache.Invalidate(key)
	}
	for _, prefix := range prefixes {
		d.cache.InvalidatePrefix(prefix)
	}
}

func (d *Dispatcher) notify(n Notification) {
	d.mu.RLock()
	notifier := d.notifier
	d.mu.RUnlock()
	if notifier != nil {
		notifier.Notify(n)
	}
}
