package userfetch

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// EventSource is the CloudEvents source attribute of every event this package emits.
const EventSource = "userfetch"

// CloudEvent types emitted during configuration loading and user fetches.
const (
	CloudEventTypeConfigLoaded     = "com.modular.userfetch.config.loaded"
	CloudEventTypeRequestStarted   = "com.modular.userfetch.request.started"
	CloudEventTypeResponseReceived = "com.modular.userfetch.response.received"
	CloudEventTypeResponseRejected = "com.modular.userfetch.response.rejected"
	CloudEventTypeRequestFailed    = "com.modular.userfetch.request.failed"
)

// NewCloudEvent creates a new CloudEvent with the specified parameters.
// Metadata entries become CloudEvent extensions. It fails when data cannot
// be encoded as JSON.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		if err := event.SetData(cloudevents.ApplicationJSON, data); err != nil {
			return event, fmt.Errorf("encode %s event data: %w", eventType, err)
		}
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event, nil
}

// generateEventID generates a unique identifier for CloudEvents using UUIDv7.
// UUIDv7 includes timestamp information which provides time-ordered uniqueness.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails for any reason
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent conforms to CloudEvents 1.0.
func ValidateCloudEvent(event cloudevents.Event) error {
	return event.Validate()
}
