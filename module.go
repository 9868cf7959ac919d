package webkit

import (
	"context"
	"fmt"
	"reflect"
)

// ModuleContext is handed to a Module's Register method. It exposes the
// shared DI container, a private Router that the app mounts at
// /<module.Name> once Register returns, and the application's free-form
// configuration values.
type ModuleContext struct {
	Container *Container
	Router    *Router
	Config    map[string]any
}

// Module is a self-contained feature unit: it owns its DI registrations,
// a private sub-router mounted at /<name>, and optional lifecycle hooks.
// Name must be unique across the app; Imports names other modules that
// must finish registering before this one does; Exports lists the
// reflect.Types this module's Register must have bound in the container by
// the time Register returns.
type Module interface {
	Name() string
	Imports() []string
	Exports() []reflect.Type
	Register(ctx *ModuleContext) error
}

// ModuleInitializer is an optional hook invoked before Register.
type ModuleInitializer interface {
	OnInit(ctx *ModuleContext) error
}

// ModuleReadyHook is an optional hook invoked after Register succeeds and
// the module's router has been mounted.
type ModuleReadyHook interface {
	OnReady(ctx *ModuleContext) error
}

// ModuleDestroyer is an optional hook invoked during shutdown, in reverse
// registration order, best-effort.
type ModuleDestroyer interface {
	OnDestroy(ctx *ModuleContext) error
}

type moduleColor int

const (
	colorWhite moduleColor = iota
	colorGrey
	colorBlack
)

// ModuleRegistry validates and drives the dependency-ordered registration
// and reverse-order teardown of a set of Modules.
type ModuleRegistry struct {
	modules    []Module
	byName     map[string]Module
	registered []Module // in actual registration order, for teardown
	contexts   map[string]*ModuleContext
	logger     Logger
	subject    *Subject
}

// NewModuleRegistry returns an empty ModuleRegistry. subject may be nil, in
// which case lifecycle events are not emitted.
func NewModuleRegistry(logger Logger, subject *Subject) *ModuleRegistry {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ModuleRegistry{
		byName:   map[string]Module{},
		contexts: map[string]*ModuleContext{},
		logger:   logger,
		subject:  subject,
	}
}

// Add appends a module in declaration order. Validate must be called
// before Boot.
func (mr *ModuleRegistry) Add(m Module) {
	mr.modules = append(mr.modules, m)
}

// Validate fails if two modules share a name, or the imports graph
// contains a cycle.
func (mr *ModuleRegistry) Validate() error {
	mr.byName = map[string]Module{}
	for _, m := range mr.modules {
		if _, exists := mr.byName[m.Name()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateModuleName, m.Name())
		}
		mr.byName[m.Name()] = m
	}
	for _, m := range mr.modules {
		for _, dep := range m.Imports() {
			if _, ok := mr.byName[dep]; !ok {
				return fmt.Errorf("%w: %s imports %s", ErrModuleImportMissing, m.Name(), dep)
			}
		}
	}

	colors := map[string]moduleColor{}
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch colors[name] {
		case colorBlack:
			return nil
		case colorGrey:
			return fmt.Errorf("%w: %v", ErrCircularModuleImport, append(path, name))
		}
		colors[name] = colorGrey
		m := mr.byName[name]
		for _, dep := range m.Imports() {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		colors[name] = colorBlack
		return nil
	}
	for _, m := range mr.modules {
		if err := visit(m.Name(), nil); err != nil {
			return err
		}
	}
	return nil
}

// Boot performs the dependency-first DFS registration traversal: for each
// top-level module in declared order, import dependencies register first;
// for every module, OnInit, then Register, then export assertion, then
// mount on root at /<name>, then OnReady. Any failure aborts and is
// returned; modules registered before the failure remain registered until
// Shutdown disposes them.
func (mr *ModuleRegistry) Boot(bootCtx context.Context, container *Container, root *Router, config map[string]any) error {
	done := map[string]bool{}

	var register func(m Module) error
	register = func(m Module) error {
		if done[m.Name()] {
			return nil
		}
		for _, dep := range m.Imports() {
			if err := register(mr.byName[dep]); err != nil {
				return err
			}
		}

		ctx := &ModuleContext{Container: container, Router: NewRouter(), Config: config}

		if mr.subject != nil {
			mr.subject.Emit(bootCtx, EventModuleInitStarted, map[string]any{"module": m.Name()})
		}
		if init, ok := m.(ModuleInitializer); ok {
			if err := init.OnInit(ctx); err != nil {
				return fmt.Errorf("module %s: onInit: %w", m.Name(), err)
			}
		}

		if err := m.Register(ctx); err != nil {
			return fmt.Errorf("module %s: register: %w", m.Name(), err)
		}

		for _, t := range m.Exports() {
			if !container.Has(t) {
				return &ModuleExportMissingError{Module: m.Name(), Type: t}
			}
		}

		root.Mount("/"+m.Name(), ctx.Router)

		if ready, ok := m.(ModuleReadyHook); ok {
			if err := ready.OnReady(ctx); err != nil {
				return fmt.Errorf("module %s: onReady: %w", m.Name(), err)
			}
		}

		done[m.Name()] = true
		mr.registered = append(mr.registered, m)
		mr.contexts[m.Name()] = ctx
		mr.logger.Info("module registered", "module", m.Name(), "exports", len(m.Exports()))
		if mr.subject != nil {
			mr.subject.Emit(bootCtx, EventModuleRegistered, map[string]any{"module": m.Name()})
			mr.subject.Emit(bootCtx, EventModuleReady, map[string]any{"module": m.Name()})
		}
		return nil
	}

	for _, m := range mr.modules {
		if err := register(m); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown invokes OnDestroy for every registered module in reverse
// registration order. Errors are logged and suppressed so one module's
// teardown failure does not block the rest.
func (mr *ModuleRegistry) Shutdown(shutdownCtx context.Context) {
	for i := len(mr.registered) - 1; i >= 0; i-- {
		m := mr.registered[i]
		destroyer, ok := m.(ModuleDestroyer)
		if !ok {
			continue
		}
		ctx := mr.contexts[m.Name()]
		if err := destroyer.OnDestroy(ctx); err != nil {
			mr.logger.Error("module teardown failed", "module", m.Name(), "error", err)
		}
		if mr.subject != nil {
			mr.subject.Emit(shutdownCtx, EventModuleDestroyed, map[string]any{"module": m.Name()})
		}
	}
}

// RegisteredNames returns the names of modules successfully registered, in
// registration order.
func (mr *ModuleRegistry) RegisteredNames() []string {
	out := make([]string, len(mr.registered))
	for i, m := range mr.registered {
		out[i] = m.Name()
	}
	return out
}
