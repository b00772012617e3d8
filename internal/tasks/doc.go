// Package tasks reconciles YouTube Music listening history against Last.fm and submits the difference.
//
// # Core Operations
//
//  1. [Diff] : plays in the candidate history whose normalized key is absent from the reference
//     history, oldest first. Matching uses [shared.NormalizeTrack].
//
//  2. [Scheduler.Submit] : sends a backlog sequentially. Timestamps are anchored at the start of
//     submission and spaced [ScrobbleSpacing] apart so the newest play lands on "now". Rejections
//     are recorded per play; anything else aborts with the partial [RunResult].
//
//  3. [Controller] : the run state machine
//     Idle → BacklogComputed → AutoConfirmed | AwaitingUserConfirmation → Submitting | Cancelled → Done.
//     An empty backlog goes from Idle straight to Done.
//
//  4. [NearMisses] : report-only Jaro-Winkler hints for backlog plays that closely resemble a
//     reference play.
//
// # Engine
//
// [ScrobbleEngine] wires the services, the controller and an optional [RunRecorder] together.
// [ScrobbleEngine.Backlog] stops after diffing and backs `ytfm diff`; [ScrobbleEngine.Sync] backs `ytfm sync`.
//
// # Progress Reporting
//
// Operations report through a [ProgressFunc], called synchronously so console output stays in
// order with the confirmation prompt. [ProgressUpdate] carries a [Phase], step counters, a message,
// and optional data such as a [TrackOutcome].
package tasks
