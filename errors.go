package webkit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Router errors.
var ErrAlreadyRegistered = errors.New("route already registered")

// Value model errors.
var (
	ErrMalformedBody   = errors.New("malformed request body")
	ErrPayloadTooLarge = errors.New("request payload too large")
)

// DI container errors.
var (
	ErrNotRegistered            = errors.New("type not registered")
	ErrServiceAlreadyRegistered = errors.New("type already registered")
	ErrServiceWrongType         = errors.New("resolved value does not satisfy requested type")
)

// Module subsystem errors.
var (
	ErrDuplicateModuleName  = errors.New("duplicate module name")
	ErrCircularModuleImport = errors.New("circular module import")
	ErrModuleImportMissing  = errors.New("module imports a module that is not registered")
	ErrModuleExportMissing  = errors.New("module export missing")
)

// Plugin subsystem errors.
var (
	ErrPluginRegistrationFailed = errors.New("plugin registration failed")
	ErrDuplicatePluginName      = errors.New("duplicate plugin name")
)

// App orchestrator / request lifecycle errors.
var (
	ErrAppAlreadyStarted      = errors.New("application already started")
	ErrHandlerFailed          = errors.New("handler failed")
	ErrWebSocketUpgradeFailed = errors.New("websocket upgrade failed")
)

// CircularDependencyError carries the full dependency chain that produced a
// cycle, from the first occurrence of the repeated type to its repeat.
type CircularDependencyError struct {
	Chain []reflect.Type
}

func (e *CircularDependencyError) Error() string {
	names := make([]string, len(e.Chain))
	for i, t := range e.Chain {
		names[i] = t.String()
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(names, " -> "))
}

func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

// ErrCircularDependency is the sentinel matched by errors.Is against any
// *CircularDependencyError.
var ErrCircularDependency = errors.New("circular dependency detected")

// ModuleExportMissingError names the module and type that failed the
// post-register export assertion.
type ModuleExportMissingError struct {
	Module string
	Type   reflect.Type
}

func (e *ModuleExportMissingError) Error() string {
	return fmt.Sprintf("module %q did not register required export %s", e.Module, e.Type)
}

func (e *ModuleExportMissingError) Unwrap() error {
	return ErrModuleExportMissing
}
