// Package repositories implements SQLite persistence for the sync run log.
//
// Repositories handle CRUD operations with atomic sequence generation for human-readable ordering.
// Soft deletes use deleted_at timestamps and deleted records are excluded from queries by default.
//
// Key Implementations:
//   - [RunRepository] : run history and the submissions Last.fm rejected in each run
//   - [RunRecorder] : adapts [RunRepository] to the engine's tasks.RunRecorder hook
//
// Sequence numbers provide stable, human-readable ordering (run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
