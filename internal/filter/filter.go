// Package filter narrows already fetched collections on the client.
package filter

import (
	"cmp"
	"strings"
)

// Predicate reports whether an item is kept. A nil Predicate is inactive.
type Predicate[T any] func(T) bool

// Apply keeps the items accepted by every active predicate. With no active
// predicate the input slice is returned as is.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	active := preds[:0:0]
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return items
	}

	out := make([]T, 0, len(items))
outer:
	for _, item := range items {
		for _, p := range active {
			if !p(item) {
				continue outer
			}
		}
		out = append(out, item)
	}
	return out
}

// Text matches a case-insensitive substring against any of the fields.
// A blank query yields nil.
func Text[T any](query string, fields ...func(T) string) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || len(fields) == 0 {
		return nil
	}
	return func(item T) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(item)), needle) {
				return true
			}
		}
		return false
	}
}

// Tags keeps items carrying every selected tag, compared case-insensitively.
// No selection yields nil.
func Tags[T any](selected []string, tags func(T) []string) Predicate[T] {
	want := make([]string, 0, len(selected))
	for _, tag := range selected {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			want = append(want, tag)
		}
	}
	if len(want) == 0 {
		return nil
	}
	return func(item T) bool {
		have := make(map[string]struct{})
		for _, tag := range tags(item) {
			have[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
		}
		for _, tag := range want {
			if _, ok := have[tag]; !ok {
				return false
			}
		}
		return true
	}
}

// Range keeps items whose value lies within [lo, hi]. A zero bound is open;
// both zero yields nil.
func Range[T any, N cmp.Ordered](lo, hi N, value func(T) N) Predicate[T] {
	var zero N
	if lo == zero && hi == zero {
		return nil
	}
	return func(item T) bool {
		v := value(item)
		if lo != zero && v < lo {
			return false
		}
		if hi != zero && v > hi {
			return false
		}
		return true
	}
}

// Equal keeps items whose value equals want. A zero want yields nil.
func Equal[T any, V comparable](want V, value func(T) V) Predicate[T] {
	var zero V
	if want == zero {
		return nil
	}
	return func(item T) bool { return value(item) == want }
}

// When returns pred if enabled and nil otherwise.
func When[T any](enabled bool, pred Predicate[T]) Predicate[T] {
	if !enabled {
		return nil
	}
	return pred
}
