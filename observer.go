package webkit

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"
)

// Observer receives lifecycle events emitted by the module/plugin
// subsystems and the app orchestrator.
type Observer interface {
	Notify(ctx context.Context, evt event.Event)
}

// Subject fans lifecycle events out to every registered Observer. It is
// the CloudEvents-backed counterpart to a plain pub/sub bus: every
// emitted event is a valid CloudEvents envelope, so observers written
// against other CloudEvents tooling can consume it unmodified.
type Subject struct {
	source    string
	observers []Observer
}

// NewSubject returns a Subject that stamps every event's source attribute
// with source (e.g. the embedding application's name).
func NewSubject(source string) *Subject {
	return &Subject{source: source}
}

// Attach registers an Observer. Observers are notified in registration
// order.
func (s *Subject) Attach(o Observer) {
	s.observers = append(s.observers, o)
}

// Emit builds a CloudEvents envelope of the given type carrying data as
// its JSON payload and notifies every attached Observer synchronously.
func (s *Subject) Emit(ctx context.Context, eventType string, data map[string]any) {
	evt := cloudevents.NewEvent()
	evt.SetID(uuid.NewString())
	evt.SetSource(s.source)
	evt.SetType(eventType)
	evt.SetTime(time.Now())
	_ = evt.SetData(cloudevents.ApplicationJSON, data)

	for _, o := range s.observers {
		o.Notify(ctx, evt)
	}
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx context.Context, evt event.Event)

func (f ObserverFunc) Notify(ctx context.Context, evt event.Event) { f(ctx, evt) }

// Lifecycle event type names emitted by the module/plugin/app subsystems.
const (
	EventModuleInitStarted = "com.webkit.module.init.started"
	EventModuleRegistered  = "com.webkit.module.registered"
	EventModuleReady       = "com.webkit.module.ready"
	EventModuleDestroyed   = "com.webkit.module.destroyed"
	EventPluginRegistered  = "com.webkit.plugin.registered"
	EventPluginDisposed    = "com.webkit.plugin.disposed"
	EventAppStarting       = "com.webkit.app.starting"
	EventAppStarted        = "com.webkit.app.started"
	EventAppStopping       = "com.webkit.app.stopping"
	EventAppStopped        = "com.webkit.app.stopped"
	EventRequestHandled    = "com.webkit.request.handled"
)
