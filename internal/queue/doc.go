// Package queue persists workflow items in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats queries,
// heartbeat tracking, stuck-item recovery, and status transitions. Queue items
// capture progress, artifact paths, and review flags so stages can coordinate
// without additional state. In-flight items that lose their worker are returned
// to pending; the work already done survives in the recorded artifact paths, so
// a resumed item re-enters the pipeline at its first incomplete stage.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
//
// Treat this package as the single source of truth for queue semantics; when you
// add new statuses or metadata fields, update schema.sql and bump schemaVersion.
package queue
