// Package models defines the domain entities of the ytfm history reconciler and its persistence interfaces.
//
// The package contains two categories of types:
//
// 1. Value types exchanged between providers and the reconciliation engine
//   - [Play] : an artist/title pair as reported by a listening service
//   - [HistoryEntry] : one entry of the YouTube Music watch history
//   - [Scrobble] : a play stamped with the time it is submitted to Last.fm
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Run] : one sync run with its counters and outcome
//   - [RunFailure] : a submission Last.fm rejected during a run
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
