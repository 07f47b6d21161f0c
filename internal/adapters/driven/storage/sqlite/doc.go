// Package sqlite provides a SQLite implementation of the feedsync storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection backs three stores:
//
//   - DocumentStore: documents in insertion order
//   - ActiveDataStore: engine side data of active documents
//   - EngineStateStore: the serialized engine
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files; applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.feedsync/data/feed.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writes are serialized by a
// store-wide mutex and multi-row writes run in a single transaction.
package sqlite
