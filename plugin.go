package webkit

import (
	"context"
	"fmt"
)

// PluginContext is handed to a Plugin's Register method. Unlike a
// ModuleContext, Router is the application's root router directly — a
// plugin has no private mount point of its own.
type PluginContext struct {
	Container *Container
	Router    *Router
	Config    map[string]any
}

// Plugin is a linear-ordered extension that shares the application's DI
// container and root router. Plugins register after all modules, in
// declaration order.
type Plugin interface {
	Name() string
	Register(ctx *PluginContext) error
}

// PluginInitializer is an optional hook invoked before Register.
type PluginInitializer interface {
	OnInit(ctx *PluginContext) error
}

// PluginDisposer is an optional hook invoked during shutdown, in reverse
// registration order.
type PluginDisposer interface {
	OnDispose(ctx *PluginContext) error
}

// PluginRegistry drives linear registration and reverse-order disposal of
// a set of Plugins.
type PluginRegistry struct {
	plugins    []Plugin
	registered []Plugin
	contexts   map[string]*PluginContext
	logger     Logger
	subject    *Subject
}

// NewPluginRegistry returns an empty PluginRegistry. subject may be nil, in
// which case lifecycle events are not emitted.
func NewPluginRegistry(logger Logger, subject *Subject) *PluginRegistry {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &PluginRegistry{contexts: map[string]*PluginContext{}, logger: logger, subject: subject}
}

// Add appends a plugin in declaration order.
func (pr *PluginRegistry) Add(p Plugin) {
	pr.plugins = append(pr.plugins, p)
}

// Boot registers every plugin in declaration order. A failure in any
// plugin's Register aborts boot and is returned immediately.
func (pr *PluginRegistry) Boot(bootCtx context.Context, container *Container, root *Router, config map[string]any) error {
	seen := map[string]bool{}
	for _, p := range pr.plugins {
		if seen[p.Name()] {
			return fmt.Errorf("%w: %s", ErrDuplicatePluginName, p.Name())
		}
		seen[p.Name()] = true

		ctx := &PluginContext{Container: container, Router: root, Config: config}

		if init, ok := p.(PluginInitializer); ok {
			if err := init.OnInit(ctx); err != nil {
				return fmt.Errorf("%w: plugin %s: onInit: %v", ErrPluginRegistrationFailed, p.Name(), err)
			}
		}
		if err := p.Register(ctx); err != nil {
			return fmt.Errorf("%w: plugin %s: %v", ErrPluginRegistrationFailed, p.Name(), err)
		}

		pr.registered = append(pr.registered, p)
		pr.contexts[p.Name()] = ctx
		pr.logger.Info("plugin registered", "plugin", p.Name())
		if pr.subject != nil {
			pr.subject.Emit(bootCtx, EventPluginRegistered, map[string]any{"plugin": p.Name()})
		}
	}
	return nil
}

// Shutdown invokes OnDispose for every registered plugin in reverse
// registration order, logging but not propagating failures.
func (pr *PluginRegistry) Shutdown(shutdownCtx context.Context) {
	for i := len(pr.registered) - 1; i >= 0; i-- {
		p := pr.registered[i]
		disposer, ok := p.(PluginDisposer)
		if !ok {
			continue
		}
		ctx := pr.contexts[p.Name()]
		if err := disposer.OnDispose(ctx); err != nil {
			pr.logger.Error("plugin dispose failed", "plugin", p.Name(), "error", err)
		}
		if pr.subject != nil {
			pr.subject.Emit(shutdownCtx, EventPluginDisposed, map[string]any{"plugin": p.Name()})
		}
	}
}
