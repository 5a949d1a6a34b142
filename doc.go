// Package appstate provides small typed reactive stores with selective
// persistence.
//
// A Store holds one record, commits updates synchronously and notifies
// subscribers with (next, prev) after every commit. Stores are plain values
// owned by the application's composition root; there are no package-level
// singletons.
//
// Data flow:
//
//	SetState/Patch/Replace -> commit -> listeners -> Persister.Persist -> activity
//	Hydrate -> Persister.Hydrate -> commit -> listeners -> OnRehydrate -> Ready()
//
// Persistence is a best-effort cache: read failures leave the initial state in
// place and write failures are logged, never returned or retried.
package appstate
