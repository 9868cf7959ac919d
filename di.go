package webkit

import (
	"fmt"
	"reflect"
	"sync"
)

// lifetime distinguishes how a Container produces a value for a
// registered type.
type lifetime int

const (
	lifetimeEagerSingleton lifetime = iota
	lifetimeLazySingleton
	lifetimeFactory
)

type binding struct {
	lifetime lifetime
	value    any               // eager singleton's already-built value
	build    func(*Container) (any, error)
	once     sync.Once
	built    any
	buildErr error

	disposer func(any) error
}

// Container is a type-keyed dependency injection registry. Values are
// resolved by reflect.Type, with three lifetimes: an eager singleton built
// at registration time, a lazy singleton built on first Get and cached
// thereafter, and a factory rebuilt on every Get. A Container may have a
// parent; resolution reads through to the parent when a type is not bound
// locally, so a child container layers additional or overriding bindings
// on top of a shared base without mutating it.
//
// A Container is safe for concurrent use. Cycle detection is done by
// threading an immutable resolution stack through per-call views of the
// container rather than storing mutable state on the shared Container, so
// concurrent resolutions on the same Container never interfere with each
// other's cycle tracking.
type Container struct {
	mu       sync.RWMutex
	bindings map[reflect.Type]*binding
	parent   *Container
	stack    []reflect.Type

	disposeOrder []reflect.Type
	logger       Logger
}

// NewContainer creates an empty root Container.
func NewContainer() *Container {
	return &Container{
		bindings: map[reflect.Type]*binding{},
		logger:   NewNopLogger(),
	}
}

// WithLogger sets the Container's Logger, which child containers inherit,
// and returns the same Container for chaining. Resolution itself does not
// log.
func (c *Container) WithLogger(l Logger) *Container {
	c.logger = l
	return c
}

// NewChild returns a Container whose bindings layer on top of c. Lookups
// that miss locally fall through to c (and in turn to c's ancestors).
func (c *Container) NewChild() *Container {
	return &Container{
		bindings: map[reflect.Type]*binding{},
		parent:   c,
		logger:   c.logger,
	}
}

func (c *Container) viewWithStack(stack []reflect.Type) *Container {
	return &Container{
		bindings:     c.bindings,
		parent:       c.parent,
		stack:        stack,
		disposeOrder: c.disposeOrder,
		logger:       c.logger,
		mu:           sync.RWMutex{},
	}
}

// RegisterSingleton binds an already-constructed value of type T.
func RegisterSingleton[T any](c *Container, value T) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return c.register(t, &binding{lifetime: lifetimeEagerSingleton, value: value})
}

// RegisterLazySingleton binds a builder for T that runs at most once, the
// first time T is resolved, and is cached for every resolution after that.
func RegisterLazySingleton[T any](c *Container, build func(*Container) (T, error)) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return c.register(t, &binding{
		lifetime: lifetimeLazySingleton,
		build: func(cc *Container) (any, error) {
			return build(cc)
		},
	})
}

// RegisterFactory binds a builder for T that runs fresh on every
// resolution.
func RegisterFactory[T any](c *Container, build func(*Container) (T, error)) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return c.register(t, &binding{
		lifetime: lifetimeFactory,
		build: func(cc *Container) (any, error) {
			return build(cc)
		},
	})
}

// OverrideSingleton replaces an existing binding for T with value, even if
// one is already registered. Intended for tests that need to substitute a
// fake for a dependency a module registered.
func OverrideSingleton[T any](c *Container, value T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[t] = &binding{lifetime: lifetimeEagerSingleton, value: value}
}

// WithDisposer attaches a teardown function to the most recently
// registered binding for T, invoked in reverse-registration order by
// Container.Dispose.
func WithDisposer[T any](c *Container, dispose func(T) error) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bindings[t]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	b.disposer = func(v any) error {
		tv, ok := v.(T)
		if !ok {
			return ErrServiceWrongType
		}
		return dispose(tv)
	}
	return nil
}

func (c *Container) register(t reflect.Type, b *binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.bindings[t]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, t)
	}
	c.bindings[t] = b
	c.disposeOrder = append(c.disposeOrder, t)
	return nil
}

// Get resolves a value of type T, walking up through parent containers if
// not bound locally. A cycle among lazy-singleton or factory builders is
// reported as a *CircularDependencyError.
func Get[T any](c *Container) (T, error) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	v, err := c.resolve(t, c.stack)
	if err != nil {
		return zero, err
	}
	tv, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrServiceWrongType, t)
	}
	return tv, nil
}

// MustGet resolves T or panics. Intended for wiring code at boot, never
// for request-path code.
func MustGet[T any](c *Container) T {
	v, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Container) resolve(t reflect.Type, stack []reflect.Type) (any, error) {
	for i, seen := range stack {
		if seen == t {
			chain := append(append([]reflect.Type(nil), stack[i:]...), t)
			return nil, &CircularDependencyError{Chain: chain}
		}
	}

	c.mu.RLock()
	b, ok := c.bindings[t]
	c.mu.RUnlock()
	if !ok {
		if c.parent != nil {
			return c.parent.resolve(t, stack)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}

	nextStack := append(append([]reflect.Type(nil), stack...), t)
	view := c.viewWithStack(nextStack)

	switch b.lifetime {
	case lifetimeEagerSingleton:
		return b.value, nil
	case lifetimeLazySingleton:
		b.once.Do(func() {
			b.built, b.buildErr = b.build(view)
		})
		return b.built, b.buildErr
	case lifetimeFactory:
		return b.build(view)
	default:
		return nil, fmt.Errorf("unknown lifetime for %s", t)
	}
}

// Has reports whether a type is bound locally or in an ancestor.
func (c *Container) Has(t reflect.Type) bool {
	c.mu.RLock()
	_, ok := c.bindings[t]
	c.mu.RUnlock()
	if ok {
		return true
	}
	if c.parent != nil {
		return c.parent.Has(t)
	}
	return false
}

// Dispose invokes every attached disposer for bindings registered directly
// on c, in reverse registration order, collecting and returning the first
// error encountered while still attempting every disposer. It does not
// dispose parent bindings; each Container owns disposal of what it itself
// registered.
func (c *Container) Dispose() error {
	c.mu.Lock()
	order := append([]reflect.Type(nil), c.disposeOrder...)
	bindings := c.bindings
	c.mu.Unlock()

	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		b := bindings[order[i]]
		if b == nil || b.disposer == nil {
			continue
		}
		var v any
		switch b.lifetime {
		case lifetimeEagerSingleton:
			v = b.value
		case lifetimeLazySingleton:
			v = b.built
		default:
			continue // factories have no cached instance to dispose
		}
		if v == nil {
			continue
		}
		if err := b.disposer(v); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
