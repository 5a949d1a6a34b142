package appstate_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/activity"
)

type prefs struct {
	Locale  string  `json:"selectedLocale"`
	Loading bool    `json:"loading"`
	Note    *string `json:"note,omitempty"`
}

type fakePersister struct {
	mu         sync.Mutex
	stored     *prefs
	hydrateErr error
	persistErr error
	persisted  []prefs
}

func (p *fakePersister) Hydrate(ctx context.Context, current prefs) (prefs, bool, error) {
	if err := ctx.Err(); err != nil {
		return current, false, err
	}
	if p.hydrateErr != nil {
		return current, false, p.hydrateErr
	}
	if p.stored == nil {
		return current, false, nil
	}
	current.Locale = p.stored.Locale
	return current, true, nil
}

func (p *fakePersister) Persist(_ context.Context, _, next prefs) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.persisted = append(p.persisted, next)
	return p.persistErr
}

func strPtr(s string) *string { return &s }

func TestSetStatePreservesUntouchedFields(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en", Note: strPtr("keep")})

	store.SetState(func(prev prefs) prefs {
		prev.Loading = true
		return prev
	})

	got := store.GetState()
	if got.Locale != "en" || !got.Loading || got.Note == nil || *got.Note != "keep" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestSetStateKeepsTimeFields(t *testing.T) {
	type stamped struct {
		At    time.Time `json:"at"`
		Count int       `json:"count"`
	}
	at := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
	store := appstate.NewStore("stamped", stamped{At: at})

	store.SetState(func(prev stamped) stamped {
		prev.Count++
		return prev
	})

	got := store.GetState()
	if !got.At.Equal(at) || got.Count != 1 {
		t.Fatalf("expected time preserved across commit, got %+v", got)
	}
}

func TestPatchKeepsNilReferenceFields(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en", Note: strPtr("keep")})

	store.Patch(prefs{Locale: "tr"})

	got := store.GetState()
	if got.Locale != "tr" || got.Note == nil || *got.Note != "keep" {
		t.Fatalf("unexpected patched state: %+v", got)
	}

	store.Replace(prefs{Locale: "de"})
	if got := store.GetState(); got.Note != nil || got.Locale != "de" {
		t.Fatalf("expected replace to drop note, got %+v", got)
	}
}

func TestGetStateSnapshotsAreDetached(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Note: strPtr("a")})
	snapshot := store.GetState()
	*snapshot.Note = "mutated"

	if got := store.GetState(); *got.Note != "a" {
		t.Fatalf("expected store state to be isolated from snapshot, got %q", *got.Note)
	}
}

func TestSubscribeReceivesNextAndPrev(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en"})
	var calls [][2]string
	unsubscribe := store.Subscribe(func(next, prev prefs) {
		calls = append(calls, [2]string{prev.Locale, next.Locale})
	})

	store.Patch(prefs{Locale: "tr"})
	unsubscribe()
	unsubscribe()
	store.Patch(prefs{Locale: "de"})

	if !reflect.DeepEqual(calls, [][2]string{{"en", "tr"}}) {
		t.Fatalf("unexpected listener calls: %v", calls)
	}
}

func TestMutationInsideListenerRunsAfterCycle(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en"})
	var order []string

	store.Subscribe(func(next, _ prefs) {
		order = append(order, "a:"+next.Locale)
		if next.Locale == "tr" {
			store.Patch(prefs{Locale: "de"})
			order = append(order, "a:queued")
		}
	})
	store.Subscribe(func(next, _ prefs) {
		order = append(order, "b:"+next.Locale)
	})

	store.Patch(prefs{Locale: "tr"})

	want := []string{"a:tr", "a:queued", "b:tr", "a:de", "b:de"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("unexpected dispatch order:\nwant %v\n got %v", want, order)
	}
	if got := store.GetState().Locale; got != "de" {
		t.Fatalf("expected last writer to win, got %q", got)
	}
}

func TestPanickingListenerDoesNotWedgeStore(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en"})
	unsubscribe := store.Subscribe(func(next, _ prefs) {
		if next.Locale == "boom" {
			panic("listener failed")
		}
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected the listener panic to reach the caller")
			}
		}()
		store.Patch(prefs{Locale: "boom"})
	}()
	unsubscribe()

	store.Patch(prefs{Locale: "tr"})
	if got := store.GetState().Locale; got != "tr" {
		t.Fatalf("expected store usable after panic, got %q", got)
	}
}

func TestSetStateFromOtherGoroutineWaitsForCommit(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en"})
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.Subscribe(func(next, _ prefs) {
		if next.Locale == "slow" {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	})

	go store.Patch(prefs{Locale: "slow"})
	<-entered

	result := make(chan string)
	go func() {
		store.Patch(prefs{Locale: "tr"})
		result <- store.GetState().Locale
	}()

	select {
	case got := <-result:
		t.Fatalf("expected second writer to wait for the active dispatch, returned with %q", got)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if got := <-result; got != "tr" {
		t.Fatalf("expected own commit visible on return, got %q", got)
	}
}

func TestUpdaterMayReadStore(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en"})
	store.SetState(func(prev prefs) prefs {
		prev.Locale = store.GetState().Locale + "-x"
		return prev
	})
	if got := store.GetState().Locale; got != "en-x" {
		t.Fatalf("unexpected state: %q", got)
	}
}

func TestCommitPersistsAndSwallowsWriteErrors(t *testing.T) {
	persister := &fakePersister{persistErr: errors.New("disk full")}
	store := appstate.NewStore("prefs", prefs{Locale: "en"}, appstate.WithPersister[prefs](persister))

	store.Patch(prefs{Locale: "tr"})

	if got := store.GetState().Locale; got != "tr" {
		t.Fatalf("expected state committed despite write failure, got %q", got)
	}
	if len(persister.persisted) != 1 || persister.persisted[0].Locale != "tr" {
		t.Fatalf("unexpected persisted states: %+v", persister.persisted)
	}
}

func TestHydrateMergesAndRunsCallbackOnce(t *testing.T) {
	persister := &fakePersister{stored: &prefs{Locale: "tr"}}
	var rehydrated []string
	capture := &activity.CaptureHook{}
	store := appstate.NewStore("prefs", prefs{Locale: "en", Loading: true},
		appstate.WithPersister[prefs](persister),
		appstate.WithOnRehydrate(func(_ context.Context, state prefs) {
			rehydrated = append(rehydrated, state.Locale)
		}),
		appstate.WithActivity[prefs](activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})),
	)

	select {
	case <-store.Ready():
		t.Fatalf("expected Ready to block before Hydrate")
	default:
	}

	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("second hydrate: %v", err)
	}

	<-store.Ready()
	got := store.GetState()
	if got.Locale != "tr" || !got.Loading {
		t.Fatalf("expected persisted field merged over initial state, got %+v", got)
	}
	if !reflect.DeepEqual(rehydrated, []string{"tr"}) {
		t.Fatalf("expected one rehydrate callback, got %v", rehydrated)
	}
	if !store.Hydrated() {
		t.Fatalf("expected Hydrated to report true")
	}
	if len(persister.persisted) != 0 {
		t.Fatalf("expected hydration not to write back, got %+v", persister.persisted)
	}
	if verbs := capture.Verbs(); !reflect.DeepEqual(verbs, []string{activity.VerbStateHydrated}) {
		t.Fatalf("unexpected activity verbs: %v", verbs)
	}
}

func TestHydrateSoftFailures(t *testing.T) {
	cases := []struct {
		name      string
		persister *fakePersister
	}{
		{name: "absent", persister: &fakePersister{}},
		{name: "malformed", persister: &fakePersister{hydrateErr: errors.New("invalid character")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			store := appstate.NewStore("prefs", prefs{Locale: "en"},
				appstate.WithPersister[prefs](tc.persister),
				appstate.WithOnRehydrate(func(context.Context, prefs) { called = true }),
			)
			if err := store.Hydrate(context.Background()); err != nil {
				t.Fatalf("expected soft failure, got %v", err)
			}
			<-store.Ready()
			if store.GetState().Locale != "en" || called || store.Hydrated() {
				t.Fatalf("expected defaults kept without callback, state=%+v called=%v", store.GetState(), called)
			}
		})
	}
}

func TestHydrateReturnsContextErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := appstate.NewStore("prefs", prefs{}, appstate.WithPersister[prefs](&fakePersister{stored: &prefs{Locale: "tr"}}))

	if err := store.Hydrate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	<-store.Ready()
}

func TestWatchFiresOnFlip(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en"})
	var seen []bool
	unsubscribe, err := store.Watch(`selectedLocale == "tr"`, func(matched bool, _ prefs) {
		seen = append(seen, matched)
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	store.Patch(prefs{Locale: "tr"})
	store.SetState(func(prev prefs) prefs { prev.Loading = true; return prev })
	store.Patch(prefs{Locale: "en"})
	unsubscribe()
	store.Patch(prefs{Locale: "tr"})

	if !reflect.DeepEqual(seen, []bool{true, false}) {
		t.Fatalf("unexpected watch notifications: %v", seen)
	}
}

func TestWatchRejectsBadRules(t *testing.T) {
	store := appstate.NewStore("prefs", prefs{Locale: "en"})
	if _, err := store.Watch(`selectedLocale`, func(bool, prefs) {}); err == nil {
		t.Fatalf("expected non-bool rule to fail")
	}
	if _, err := store.Watch(`true`, nil); err == nil {
		t.Fatalf("expected nil callback to fail")
	}
}

func TestConcurrentWritersAreSerialized(t *testing.T) {
	type counter struct {
		N int `json:"n"`
	}
	store := appstate.NewStore("counter", counter{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.SetState(func(prev counter) counter {
				prev.N++
				return prev
			})
		}()
	}
	wg.Wait()
	if got := store.GetState().N; got != 50 {
		t.Fatalf("expected 50 increments, got %d", got)
	}
}
