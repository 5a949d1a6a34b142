package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-appstate/pkg/activity"
	"github.com/goliatone/go-appstate/pkg/telemetry"
)

func TestHookWritesBreadcrumbs(t *testing.T) {
	collector := &telemetry.Memory{}
	hooks := activity.Hooks{telemetry.Hook{Collector: collector}}

	event := activity.BuildStateUpdatedEvent(activity.StateEventInput{
		Store:  "locale",
		Fields: []string{"selectedLocale", "loading"},
	})
	if err := hooks.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	want := []string{"state.updated locale [loading selectedLocale]"}
	if got := collector.Logs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected breadcrumbs: %v", got)
	}
}

func TestSlogCollector(t *testing.T) {
	var buf bytes.Buffer
	collector := telemetry.SlogCollector{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	collector.Log("hello")
	collector.RecordError(errors.New("boom"))
	collector.RecordError(nil)

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "error=boom") {
		t.Fatalf("unexpected log output:\n%s", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected nil error to be ignored:\n%s", out)
	}

	telemetry.SlogCollector{}.Log("discarded")
}
