// Package sqlitestore is the durable spillcache.Store: one SQLite table
// keyed by (identity, key), owned by a single worker goroutine.
//
// Every call is a unit of work on a FIFO queue consumed only by the worker.
// Set, Remove and SetDirty are write-behind: they return once queued. Get and
// IsDirty wait for the worker's answer, so they observe every mutation queued
// before them by the same store. Faults inside the worker are logged and
// reported to Hooks; readers then receive the default (or dirty=true).
//
// Values are serialized with a codec.Codec[any] (codec.Typed unless configured)
// in the calling goroutine, so later mutation of a value by the caller does
// not leak into the queued write.
package sqlitestore
