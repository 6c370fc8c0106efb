package form

import (
	"context"
	"errors"
	"maps"
	"sync"
)

// Form holds an editable value of a schema type together with its current
// field errors. Every Update re-validates the whole value.
type Form[T any] struct {
	mu     sync.Mutex
	value  T
	errors map[string]string
}

// New returns a form seeded with the initial value.
func New[T any](initial T) *Form[T] {
	f := &Form[T]{value: initial}
	f.revalidate()
	return f
}

// Update applies a change to the value and re-evaluates field errors.
func (f *Form[T]) Update(change func(*T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	change(&f.value)
	f.revalidate()
}

// Value returns a copy of the current value.
func (f *Form[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Errors returns the current field errors keyed by JSON field name.
func (f *Form[T]) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.errors)
}

// CanSubmit reports whether every field passes validation.
func (f *Form[T]) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) == 0
}

// Submit calls fn with the current value. While the form is invalid it
// returns a *ValidationError and fn is not called.
func (f *Form[T]) Submit(ctx context.Context, fn func(context.Context, T) error) error {
	f.mu.Lock()
	value := f.value
	fieldErrs := maps.Clone(f.errors)
	f.mu.Unlock()

	if len(fieldErrs) > 0 {
		return &ValidationError{Fields: fieldErrs}
	}
	return fn(ctx, value)
}

func (f *Form[T]) revalidate() {
	f.errors = nil
	var verr *ValidationError
	if err := Validate(f.value); errors.As(err, &verr) {
		f.errors = verr.Fields
	} else if err != nil {
		f.errors = map[string]string{"": err.Error()}
	}
}
