package theme_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/appearance"
	"github.com/goliatone/go-appstate/pkg/effect"
	"github.com/goliatone/go-appstate/pkg/storage"
	"github.com/goliatone/go-appstate/pkg/theme"
)

func newRunner(t *testing.T, api appearance.API) *effect.Runner {
	t.Helper()
	registry := effect.NewRegistry()
	if err := registry.Register(effect.KindSetColorScheme, theme.AppearanceHandler(api)); err != nil {
		t.Fatalf("register: %v", err)
	}
	return effect.NewRunner(registry)
}

func TestInitialFollowsAppearance(t *testing.T) {
	if got := theme.Initial(appearance.NewStatic(appearance.Dark)).SelectedTheme; got != theme.Dark {
		t.Fatalf("expected dark, got %q", got)
	}
	if got := theme.Initial(appearance.NewStatic("")).SelectedTheme; got != theme.DefaultMode {
		t.Fatalf("expected default, got %q", got)
	}
	if got := theme.Initial(nil).SelectedTheme; got != theme.DefaultMode {
		t.Fatalf("expected default for nil api, got %q", got)
	}
}

func TestChangeThemeSetsStateAndAppearanceOnce(t *testing.T) {
	for _, mode := range []theme.Mode{theme.Light, theme.Dark} {
		t.Run(string(mode), func(t *testing.T) {
			api := appearance.NewStatic("")
			store, err := theme.NewStore(storage.NewMemory(nil), newRunner(t, api), api)
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			if err := store.ChangeTheme(context.Background(), mode); err != nil {
				t.Fatalf("change theme: %v", err)
			}
			if got := store.GetState().SelectedTheme; got != mode {
				t.Fatalf("expected %q, got %q", mode, got)
			}
			if got := api.Applied(); !reflect.DeepEqual(got, []appearance.ColorScheme{appearance.ColorScheme(mode)}) {
				t.Fatalf("expected one appearance call with %q, got %v", mode, got)
			}
		})
	}
}

func TestChangeThemeTwiceIsNotDeduplicated(t *testing.T) {
	api := appearance.NewStatic("")
	store, _ := theme.NewStore(storage.NewMemory(nil), newRunner(t, api), api)
	var commits int
	store.Subscribe(func(theme.State, theme.State) { commits++ })

	_ = store.ChangeTheme(context.Background(), theme.Dark)
	_ = store.ChangeTheme(context.Background(), theme.Dark)

	if got := store.GetState().SelectedTheme; got != theme.Dark {
		t.Fatalf("expected dark, got %q", got)
	}
	if got := api.Applied(); len(got) != 2 {
		t.Fatalf("expected two appearance calls, got %v", got)
	}
	if commits != 2 {
		t.Fatalf("expected two commits, got %d", commits)
	}
}

func TestChangeThemeRejectsInvalidMode(t *testing.T) {
	api := appearance.NewStatic(appearance.Dark)
	store, _ := theme.NewStore(storage.NewMemory(nil), newRunner(t, api), api)
	if err := store.ChangeTheme(context.Background(), "sepia"); !errors.Is(err, theme.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if store.GetState().SelectedTheme != theme.Dark || len(api.Applied()) != 0 {
		t.Fatalf("expected no change for invalid mode")
	}
	if _, err := theme.ParseMode("Dark"); err == nil {
		t.Fatalf("expected modes to be case sensitive")
	}
}

func TestRehydrateAppliesPersistedThemeOnceBeforeUserChanges(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(map[string]string{
		theme.StorageKey: `{"state":{"selectedTheme":"light"},"version":0}`,
	})
	api := appearance.NewStatic(appearance.Dark)
	store, _ := theme.NewStore(kv, newRunner(t, api), api)

	if got := store.GetState().SelectedTheme; got != theme.Dark {
		t.Fatalf("expected OS default before hydrate, got %q", got)
	}
	_ = store.Hydrate(ctx)
	<-store.Ready()

	if got := store.GetState().SelectedTheme; got != theme.Light {
		t.Fatalf("expected restored light, got %q", got)
	}
	if got := api.Applied(); !reflect.DeepEqual(got, []appearance.ColorScheme{appearance.Light}) {
		t.Fatalf("expected single rehydrate appearance call, got %v", got)
	}

	_ = store.ChangeTheme(ctx, theme.Dark)
	if got := api.Applied(); !reflect.DeepEqual(got, []appearance.ColorScheme{appearance.Light, appearance.Dark}) {
		t.Fatalf("unexpected appearance history %v", got)
	}
	raw, _, _ := kv.Get(ctx, theme.StorageKey)
	if raw != `{"state":{"selectedTheme":"dark"},"version":0}` {
		t.Fatalf("unexpected persisted entry %q", raw)
	}
}

func TestInvalidPersistedThemeIsIgnored(t *testing.T) {
	kv := storage.NewMemory(map[string]string{theme.StorageKey: `{"state":{"selectedTheme":"blue"},"version":0}`})
	api := appearance.NewStatic(appearance.Dark)
	store, _ := theme.NewStore(kv, newRunner(t, api), api)
	_ = store.Hydrate(context.Background())
	if store.GetState().SelectedTheme != theme.Dark || store.Hydrated() {
		t.Fatalf("expected invalid entry to be ignored")
	}
	if len(api.Applied()) != 0 {
		t.Fatalf("expected no appearance call")
	}
}

func TestWatchDarkMode(t *testing.T) {
	api := appearance.NewStatic("")
	store, _ := theme.NewStore(storage.NewMemory(nil), newRunner(t, api), api, appstate.WithLogger[theme.State](nil))
	var seen []bool
	if _, err := store.Watch(`selectedTheme == "dark"`, func(m bool, _ theme.State) { seen = append(seen, m) }); err != nil {
		t.Fatalf("watch: %v", err)
	}
	_ = store.ChangeTheme(context.Background(), theme.Dark)
	_ = store.ChangeTheme(context.Background(), theme.Light)
	if !reflect.DeepEqual(seen, []bool{true, false}) {
		t.Fatalf("unexpected watch flips %v", seen)
	}
}
