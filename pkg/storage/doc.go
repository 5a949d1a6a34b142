// Package storage provides the string key-value media persisted stores write
// to. Values are opaque strings; encoding belongs to pkg/persist.
//
// Backends:
//   - Memory: process-local map, for tests and ephemeral sessions.
//   - File: one JSON object on disk, rewritten atomically on every change.
//   - SQLite: a kv table in a sqlite3 database.
//   - Sealed: wraps another KV and encrypts values for selected keys.
package storage
