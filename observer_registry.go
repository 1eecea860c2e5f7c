package userfetch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool // set of event types this observer is interested in
	registeredAt time.Time
}

// observerRegistry is the Subject shared by a Client and every copy made
// from it with WithUsersURL.
type observerRegistry struct {
	observers     map[string]*observerRegistration // key is observer ID
	observerMutex sync.RWMutex
	logger        Logger
}

var _ Subject = (*observerRegistry)(nil)

func newObserverRegistry(logger Logger) *observerRegistry {
	return &observerRegistry{
		observers: make(map[string]*observerRegistration),
		logger:    logger,
	}
}

// RegisterObserver adds an observer. Registering the same ID again replaces
// the earlier registration.
func (r *observerRegistry) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}

	r.observerMutex.Lock()
	defer r.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	r.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	r.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer from receiving notifications.
func (r *observerRegistry) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}

	r.observerMutex.Lock()
	defer r.observerMutex.Unlock()

	if _, exists := r.observers[observer.ObserverID()]; exists {
		delete(r.observers, observer.ObserverID())
		r.logger.Debug("Observer unregistered", "observerID", observer.ObserverID())
	}
	return nil
}

// NotifyObservers delivers event to every interested observer in ID order.
// Observer errors and panics are logged, never returned.
func (r *observerRegistry) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		r.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return fmt.Errorf("invalid event %s: %w", event.Type(), err)
	}

	for _, registration := range r.interested(event.Type()) {
		r.deliver(ctx, registration, event)
	}
	return nil
}

// interested snapshots the matching registrations so observers run without
// the lock held and may themselves register or unregister.
func (r *observerRegistry) interested(eventType string) []*observerRegistration {
	r.observerMutex.RLock()
	defer r.observerMutex.RUnlock()

	matched := make([]*observerRegistration, 0, len(r.observers))
	for _, registration := range r.observers {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[eventType] {
			continue
		}
		matched = append(matched, registration)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].observer.ObserverID() < matched[j].observer.ObserverID()
	})
	return matched
}

func (r *observerRegistry) deliver(ctx context.Context, registration *observerRegistration, event cloudevents.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Observer panicked", "observerID", registration.observer.ObserverID(), "event", event.Type(), "panic", rec)
		}
	}()

	if err := registration.observer.OnEvent(ctx, event); err != nil {
		r.logger.Error("Observer error", "observerID", registration.observer.ObserverID(), "event", event.Type(), "error", err)
	}
}

// GetObservers returns information about currently registered observers, sorted by ID.
func (r *observerRegistry) GetObservers() []ObserverInfo {
	r.observerMutex.RLock()
	defer r.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(r.observers))
	for id, registration := range r.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}
		sort.Strings(eventTypes)

		info = append(info, ObserverInfo{
			ID:           id,
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}
	sort.Slice(info, func(i, j int) bool { return info[i].ID < info[j].ID })
	return info
}

// emit builds and delivers an event. A nil registry is a no-op.
func (r *observerRegistry) emit(ctx context.Context, eventType string, data any, metadata map[string]any) {
	if r == nil {
		return
	}
	event, err := NewCloudEvent(eventType, EventSource, data, metadata)
	if err != nil {
		r.logger.Warn("Dropping event with unencodable data", "eventType", eventType, "error", err)
		return
	}
	if err = r.NotifyObservers(ctx, event); err != nil {
		r.logger.Debug("Failed to emit event", "eventType", eventType, "error", err)
	}
}
