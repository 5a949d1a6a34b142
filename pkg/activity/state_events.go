package activity

import (
	"strings"
	"time"
)

const (
	VerbStateUpdated  = "state.updated"
	VerbStateHydrated = "state.hydrated"
	VerbStateCleared  = "state.cleared"

	VerbUserDeleted = "user.deleted"
	VerbAuthChanged = "auth.changed"

	// ObjectTypeState marks events whose ObjectID is a store name.
	ObjectTypeState = "state"
	// ObjectTypeAccount marks account events; ObjectID is the user ID or
	// "device" when nobody is signed in.
	ObjectTypeAccount = "account"
)

// StateEventInput holds the common fields for store lifecycle events.
type StateEventInput struct {
	Store      string
	Fields     []string
	OldValue   any
	NewValue   any
	ActorID    string
	UserID     string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

func BuildStateUpdatedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbStateUpdated, input)
}

func BuildStateHydratedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbStateHydrated, input)
}

func BuildStateClearedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbStateCleared, input)
}

// BuildAccountEvent constructs an account lifecycle event such as
// VerbUserDeleted. These are the events forwarded to user activity sinks.
func BuildAccountEvent(verb string, input StateEventInput) Event {
	event := buildStateEvent(verb, input)
	event.ObjectType = ObjectTypeAccount
	event.ObjectID = strings.TrimSpace(input.UserID)
	if event.ObjectID == "" {
		event.ObjectID = "device"
	}
	if store := strings.TrimSpace(input.Store); store != "" {
		event.Metadata = ensureMetadata(event.Metadata)
		event.Metadata["store"] = store
	}
	return event
}

func buildStateEvent(verb string, input StateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if len(input.Fields) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["fields"] = append([]string{}, input.Fields...)
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	objectID := strings.TrimSpace(input.Store)
	if objectID == "" {
		objectID = ObjectTypeState
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		ObjectType: ObjectTypeState,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
