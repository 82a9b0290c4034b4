// Package storage provides ports.KeyValueStore implementations.
//
// SQLiteStore is the durable store used for the quote list. It keeps a single
// kv table, runs versioned migrations on open and reports its health through
// a ping.
//
// MemoryStore is a process-local map with per-key expiry, used for session
// state that must not outlive the process.
//
// Janitor sweeps expired entries out of both on an interval.
package storage
