package persist_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	appstate "github.com/goliatone/go-appstate"
	"github.com/goliatone/go-appstate/pkg/persist"
	"github.com/goliatone/go-appstate/pkg/storage"
)

type localeState struct {
	SelectedLocale string `json:"selectedLocale"`
	Loading        bool   `json:"loading"`
}

type localeSubset struct {
	SelectedLocale string `json:"selectedLocale"`
}

type failingKV struct {
	storage.KV
	getErr error
	setErr error
}

func (f failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.KV.Get(ctx, key)
}

func (f failingKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.KV.Set(ctx, key, value)
}

func newLocaleAdapter(t *testing.T, kv storage.KV) *persist.Adapter[localeState, localeSubset] {
	t.Helper()
	adapter, err := persist.New[localeState, localeSubset](kv, "locale-storage",
		persist.NewJSONCodec(
			persist.JSONValidate(func(s *localeSubset) error {
				if s.SelectedLocale == "" {
					return errors.New("empty locale")
				}
				return nil
			}),
		),
		func(s localeState) localeSubset { return localeSubset{SelectedLocale: s.SelectedLocale} },
		func(s localeState, p localeSubset) localeState {
			s.SelectedLocale = p.SelectedLocale
			return s
		},
	)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return adapter
}

var _ appstate.Persister[localeState] = (*persist.Adapter[localeState, localeSubset])(nil)

func TestAdapterPersistsOnlySubset(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(nil)
	adapter := newLocaleAdapter(t, kv)

	if err := adapter.Persist(ctx, localeState{SelectedLocale: "en"}, localeState{SelectedLocale: "tr", Loading: true}); err != nil {
		t.Fatalf("persist: %v", err)
	}
	raw, _, _ := kv.Get(ctx, "locale-storage")
	if raw != `{"state":{"selectedLocale":"tr"},"version":0}` {
		t.Fatalf("unexpected stored envelope: %s", raw)
	}

	restored, ok, err := adapter.Hydrate(ctx, localeState{SelectedLocale: "en", Loading: true})
	if err != nil || !ok {
		t.Fatalf("hydrate: ok=%v err=%v", ok, err)
	}
	if restored != (localeState{SelectedLocale: "tr", Loading: true}) {
		t.Fatalf("expected only locale restored, got %+v", restored)
	}
}

func TestAdapterSkipsUnchangedSubset(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(map[string]string{"locale-storage": "written elsewhere"})
	adapter := newLocaleAdapter(t, kv)

	if err := adapter.Persist(ctx, localeState{SelectedLocale: "en"}, localeState{SelectedLocale: "en", Loading: true}); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if raw, _, _ := kv.Get(ctx, "locale-storage"); raw != "written elsewhere" {
		t.Fatalf("expected entry untouched when the subset did not change, got %q", raw)
	}
}

func TestAdapterHydrateAbsentAndMalformed(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(nil)
	adapter := newLocaleAdapter(t, kv)
	initial := localeState{SelectedLocale: "en"}

	got, ok, err := adapter.Hydrate(ctx, initial)
	if err != nil || ok || got != initial {
		t.Fatalf("expected absent entry to be a no-op, got %+v ok=%v err=%v", got, ok, err)
	}

	for _, raw := range []string{"not json", `{"state":{"selectedLocale":""},"version":0}`} {
		_ = kv.Set(ctx, "locale-storage", raw)
		got, ok, err := adapter.Hydrate(ctx, initial)
		if err == nil || ok || got != initial {
			t.Fatalf("expected decode failure for %q, got %+v ok=%v err=%v", raw, got, ok, err)
		}
	}
}

func TestAdapterWrapsStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	adapter := newLocaleAdapter(t, failingKV{KV: storage.NewMemory(nil), getErr: boom, setErr: boom})

	if _, _, err := adapter.Hydrate(ctx, localeState{}); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	if err := adapter.Persist(ctx, localeState{}, localeState{SelectedLocale: "tr"}); !errors.Is(err, boom) || !strings.Contains(err.Error(), "locale-storage") {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
}

func TestJSONCodecMigratesOldVersions(t *testing.T) {
	codec := persist.NewJSONCodec(
		persist.JSONVersion[localeSubset](1),
		persist.JSONMigration[localeSubset](0, func(payload map[string]any) (map[string]any, error) {
			payload["selectedLocale"] = payload["lang"]
			delete(payload, "lang")
			return payload, nil
		}),
	)
	got, err := codec.Decode("locale-storage", `{"state":{"lang":"tr"},"version":0}`)
	if err != nil || got.SelectedLocale != "tr" {
		t.Fatalf("expected migrated locale, got %+v err=%v", got, err)
	}
	raw, _ := codec.Encode(got)
	if raw != `{"state":{"selectedLocale":"tr"},"version":1}` {
		t.Fatalf("unexpected encoded envelope: %s", raw)
	}
}

func TestJSONCodecStrict(t *testing.T) {
	codec := persist.NewJSONCodec(persist.JSONStrict[localeSubset]())
	if _, err := codec.Decode("k", `{"state":{"selectedLocale":"tr","x":1}}`); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}

func TestBoolCodec(t *testing.T) {
	codec := persist.BoolCodec{}
	for raw, want := range map[string]bool{"true": true, "false": false, " true\n": true} {
		got, err := codec.Decode("isOnboardingSeen", raw)
		if err != nil || got != want {
			t.Fatalf("decode %q: got %v err=%v", raw, got, err)
		}
	}
	if _, err := codec.Decode("isOnboardingSeen", "yes"); err == nil {
		t.Fatalf("expected invalid literal to fail")
	}
	if raw, _ := codec.Encode(true); raw != "true" {
		t.Fatalf("unexpected encoding %q", raw)
	}
}

func TestAdapterClearAndValidation(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(map[string]string{"isOnboardingSeen": "true"})
	adapter, err := persist.New[bool, bool](kv, "isOnboardingSeen", persist.BoolCodec{},
		func(b bool) bool { return b }, func(_ bool, b bool) bool { return b })
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if v, ok, err := adapter.Load(ctx); err != nil || !ok || !v {
		t.Fatalf("load: %v %v %v", v, ok, err)
	}
	if err := adapter.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "isOnboardingSeen"); ok {
		t.Fatalf("expected key removed")
	}

	if _, err := persist.New[bool, bool](nil, "k", persist.BoolCodec{}, nil, nil); err == nil {
		t.Fatalf("expected nil kv to fail")
	}
	if _, err := persist.New[bool, bool](kv, "", persist.BoolCodec{}, nil, nil); err == nil {
		t.Fatalf("expected empty key to fail")
	}
}
