package activity

import (
	"context"
	"reflect"
	"testing"
)

func TestBuildStateUpdatedEventIncludesFields(t *testing.T) {
	fields := []string{"selectedTheme"}
	event := BuildStateUpdatedEvent(StateEventInput{
		Store:    " theme ",
		Fields:   fields,
		OldValue: "light",
		NewValue: "dark",
		Metadata: map[string]any{"source": "settings"},
	})

	if event.Verb != VerbStateUpdated || event.ObjectType != ObjectTypeState || event.ObjectID != "theme" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if !reflect.DeepEqual(event.Metadata["fields"], []string{"selectedTheme"}) {
		t.Fatalf("expected fields metadata, got %v", event.Metadata["fields"])
	}
	if event.Metadata["old_value"] != "light" || event.Metadata["new_value"] != "dark" || event.Metadata["source"] != "settings" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	event.Metadata["fields"].([]string)[0] = "changed"
	if fields[0] != "selectedTheme" {
		t.Fatalf("expected input fields untouched")
	}
}

func TestBuildStateClearedEventFallsBackToObjectType(t *testing.T) {
	event := BuildStateClearedEvent(StateEventInput{})
	if event.ObjectID != ObjectTypeState || event.Metadata != nil {
		t.Fatalf("unexpected fallback event: %+v", event)
	}
}

func TestBuildStateEventsWorkWithHooks(t *testing.T) {
	capture := &CaptureHook{}
	event := BuildStateHydratedEvent(StateEventInput{Store: "locale", Fields: []string{"selectedLocale"}})
	if err := (Hooks{capture}).Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if verbs := capture.Verbs(); len(verbs) != 1 || verbs[0] != VerbStateHydrated {
		t.Fatalf("unexpected captured verbs: %v", verbs)
	}
}

func TestBuildAccountEventUsesUserOrDevice(t *testing.T) {
	event := BuildAccountEvent(VerbUserDeleted, StateEventInput{Store: "user"})
	if event.ObjectType != ObjectTypeAccount || event.ObjectID != "device" {
		t.Fatalf("unexpected account event: %+v", event)
	}
	if event.Metadata["store"] != "user" {
		t.Fatalf("expected store metadata, got %+v", event.Metadata)
	}

	event = BuildAccountEvent(VerbAuthChanged, StateEventInput{UserID: " u42 ", NewValue: true})
	if event.ObjectID != "u42" || event.Metadata["new_value"] != true {
		t.Fatalf("unexpected account event: %+v", event)
	}
}
