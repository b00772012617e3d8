package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
)

// RunRepository implements [models.Repository] for sync [models.Run] history.
//
// Handles run CRUD operations with soft delete support and keeps the rejected submissions of each run.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `
	id, sequence, status, unattended, dry_run, found, submitted, failed, message,
	started_at, finished_at, created_at, updated_at, deleted_at
`

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	return r.CreateWithFailures(run, nil)
}

// CreateWithFailures inserts run and its rejected submissions in one transaction.
//
// Either the run and every failure are stored or nothing is, sequence included.
func (r *RunRepository) CreateWithFailures(run *models.Run, failures []*models.RunFailure) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextSequence(tx, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = tx.Exec(query,
		id,
		sequence,
		string(run.Status()),
		run.Unattended(),
		run.DryRun(),
		run.Found(),
		run.Submitted(),
		run.Failed(),
		run.Message(),
		run.StartedAt(),
		nullTime(run.FinishedAt()),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := insertFailures(tx, id, failures); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return run, nil
}

// Update writes the run's status, counters and finish time
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET status = ?, found = ?, submitted = ?, failed = ?, message = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(run.Status()),
		run.Found(),
		run.Submitted(),
		run.Failed(),
		run.Message(),
		nullTime(run.FinishedAt()),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "status" ([models.RunStatus] or string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.RunStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// AddFailures stores the rejected submissions of an existing run in one transaction
func (r *RunRepository) AddFailures(runID string, failures []*models.RunFailure) error {
	if len(failures) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertFailures(tx, runID, failures); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run failures: %w", err)
	}

	return nil
}

func insertFailures(tx *sql.Tx, runID string, failures []*models.RunFailure) error {
	query := `
		INSERT INTO run_failures (id, run_id, position, artist, title, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, f := range failures {
		f.SetRunID(runID)
		if err := f.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		f.SetID(shared.GenerateID())
		play := f.Play()
		if _, err := tx.Exec(query, f.ID(), runID, f.Position(), play.Artist, play.Title, f.Reason(), f.CreatedAt()); err != nil {
			return fmt.Errorf("failed to insert run failure: %w", err)
		}
	}
	return nil
}

// Failures returns the rejected submissions of a run in backlog order
func (r *RunRepository) Failures(runID string) ([]*models.RunFailure, error) {
	query := `
		SELECT id, run_id, position, artist, title, reason, created_at
		FROM run_failures
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run failures: %w", err)
	}
	defer rows.Close()

	var failures []*models.RunFailure
	for rows.Next() {
		var (
			id, rid, artist, title, reason string
			position                       int
			createdAt                      time.Time
		)
		if err := rows.Scan(&id, &rid, &position, &artist, &title, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run failure: %w", err)
		}

		f := models.NewRunFailure(rid, position, models.Play{Artist: artist, Title: title}, reason)
		f.SetID(id)
		f.SetCreatedAt(createdAt)
		failures = append(failures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return failures, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		id         string
		sequence   int
		status     string
		unattended bool
		dryRun     bool
		found      int
		submitted  int
		failed     int
		message    string
		startedAt  time.Time
		finishedAt sql.NullTime
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &status, &unattended, &dryRun, &found, &submitted, &failed, &message,
		&startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	run := models.NewRun(sequence, unattended, dryRun, startedAt)
	run.SetID(id)
	run.SetStatus(models.RunStatus(status))
	run.SetCounts(found, submitted, failed)
	run.SetMessage(message)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if finishedAt.Valid {
		run.SetFinishedAt(&finishedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
