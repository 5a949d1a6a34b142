// Package persist binds a store to one entry of a storage.KV.
//
// An Adapter picks the persisted subset out of a store's state, encodes it
// with a Codec and writes it under a fixed key. Hydration reads the entry back
// and applies it over the in-memory state. JSONCodec writes the
// {"state": ..., "version": N} envelope; BoolCodec writes the bare
// "true"/"false" strings used by the onboarding flag.
package persist
