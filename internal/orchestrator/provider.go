package orchestrator

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/stagehand/internal/diag"
)

// ProviderKind is the explicit discriminant of the provider union, decided
// once at registration time.
type ProviderKind int

const (
	KindValue ProviderKind = iota
	KindFactory
	KindConstructor
	KindRaw
)

func (k ProviderKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFactory:
		return "factory"
	case KindConstructor:
		return "constructor"
	case KindRaw:
		return "raw"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Factory produces a component instance synchronously.
type Factory func() (any, error)

// Constructor produces a component instance and cannot fail.
type Constructor func() any

// Deferred is a promise-style handle for a value that materializes later.
// The orchestrator rejects providers built on Deferred values: component
// materialization must stay synchronous so it interleaves safely with the
// concurrency-bounded phase scheduler.
type Deferred struct {
	ch chan any
}

// NewDeferred creates an unresolved handle.
func NewDeferred() *Deferred {
	return &Deferred{ch: make(chan any, 1)}
}

// Resolve supplies the value. Only the first call has effect.
func (d *Deferred) Resolve(v any) {
	select {
	case d.ch <- v:
	default:
	}
}

// Await blocks until the handle resolves or ctx expires.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	select {
	case v := <-d.ch:
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Provider is the tagged union describing how a component instance is
// materialized.
type Provider struct {
	kind           ProviderKind
	value          any
	factory        Factory
	ctor           Constructor
	async          bool
	deferredResult bool
}

// Value wraps an already-built instance.
func Value(v any) Provider { return Provider{kind: KindValue, value: v} }

// Raw wraps a value that must be used exactly as given, even if it is a
// function.
func Raw(v any) Provider { return Provider{kind: KindRaw, value: v} }

// FromFactory wraps a synchronous factory.
func FromFactory(fn Factory) Provider { return Provider{kind: KindFactory, factory: fn} }

// AsyncFactory marks a factory as asynchronous. Registration rejects it;
// the constructor exists so callers get the dedicated diagnostic instead of
// a silent misbehavior.
func AsyncFactory(fn Factory) Provider {
	return Provider{kind: KindFactory, factory: fn, async: true}
}

// FromConstructor wraps an infallible constructor.
func FromConstructor(fn Constructor) Provider { return Provider{kind: KindConstructor, ctor: fn} }

// FromFunc builds a factory provider from an arbitrary function of shape
// func() T or func() (T, error). The returned provider remembers whether T
// is a Deferred so registration can reject it.
func FromFunc(fn any) (Provider, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumIn() != 0 || t.NumOut() < 1 || t.NumOut() > 2 {
		return Provider{}, fmt.Errorf("provider function must be func() T or func() (T, error), got %T", fn)
	}
	if t.NumOut() == 2 && t.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
		return Provider{}, fmt.Errorf("second return of a provider function must be error, got %s", t.Out(1))
	}

	p := Provider{kind: KindFactory, factory: func() (any, error) {
		results := v.Call(nil)
		if len(results) == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}}
	if t.Out(0) == reflect.TypeOf((*Deferred)(nil)) {
		p.deferredResult = true
	}
	return p, nil
}

// AsyncProviderError rejects a provider at registration time, before any
// phase runs. The three sub-cases each carry their own diagnostic code.
type AsyncProviderError struct {
	code   diag.Code
	detail string
}

func (e *AsyncProviderError) Error() string {
	return "asynchronous providers are not supported: " + e.detail
}

// DiagCode implements diag.Coder.
func (e *AsyncProviderError) DiagCode() diag.Code { return e.code }

// validate enforces the synchronous-provider guard.
func (p Provider) validate() error {
	if p.async {
		return &AsyncProviderError{
			code:   diag.CodeAsyncFactory,
			detail: "factory is flagged asynchronous",
		}
	}
	if p.deferredResult {
		return &AsyncProviderError{
			code:   diag.CodeAsyncFactoryResult,
			detail: "factory returns a deferred result",
		}
	}
	if (p.kind == KindValue || p.kind == KindRaw) && isDeferred(p.value) {
		return &AsyncProviderError{
			code:   diag.CodeAsyncValue,
			detail: "value is a pre-resolved deferred",
		}
	}
	return nil
}

func isDeferred(v any) bool {
	_, ok := v.(*Deferred)
	return ok
}

// Kind returns the provider's discriminant.
func (p Provider) Kind() ProviderKind { return p.kind }

// Materialize produces the component instance. It is synchronous by
// construction; validate has already rejected anything deferred.
func (p Provider) Materialize() (any, error) {
	switch p.kind {
	case KindValue, KindRaw:
		return p.value, nil
	case KindFactory:
		if p.factory == nil {
			return nil, fmt.Errorf("factory provider with nil factory")
		}
		return p.factory()
	case KindConstructor:
		if p.ctor == nil {
			return nil, fmt.Errorf("constructor provider with nil constructor")
		}
		return p.ctor(), nil
	}
	return nil, fmt.Errorf("unknown provider kind %v", p.kind)
}
