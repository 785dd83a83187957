package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gaudit-core/internal/infrastructure/database"
	"github.com/nerrad567/gaudit-core/internal/infrastructure/logging"
)

// Store is the transactional writer for audit data.
//
// Every mutating operation follows the same contract: validate inputs
// locally (no I/O), acquire a handle from the pool, execute exactly one
// logical write inside a transaction, commit or roll back, and always
// release the handle. Storage failures are logged and re-signalled as a
// *StorageError wrapping the cause; they are never silently swallowed.
type Store struct {
	pool    *database.Pool
	tracker *Tracker
	log     *logging.Logger
}

// NewStore creates a Store writing to the pool's location.
//
// Parameters:
//   - pool: Connection pool bound to the storage location
//   - tracker: Lifecycle tracker owning the section start-time table
//   - log: Logger for rollback diagnostics
func NewStore(pool *database.Pool, tracker *Tracker, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Default()
	}
	return &Store{
		pool:    pool,
		tracker: tracker,
		log:     log.With("component", "audit_store"),
	}
}

// CreateRunOptions carries the optional attributes of a new run.
type CreateRunOptions struct {
	// Domain is the workspace domain being audited, if applicable.
	Domain string

	// CLIArgs is the command-line argument map used for the run.
	CLIArgs map[string]string

	// SkippedServices lists services intentionally excluded from the run.
	SkippedServices []string
}

// CreateRun inserts a new run record with status IN_PROGRESS and returns
// the newly assigned run identifier. CLIArgs and SkippedServices are
// serialized to JSON text; nil values are stored as NULL.
func (s *Store) CreateRun(ctx context.Context, opts CreateRunOptions) (int64, error) {
	cliArgsJSON, err := marshalNullable(opts.CLIArgs)
	if err != nil {
		return 0, fmt.Errorf("%w: cli_args not serializable", ErrInvalidArgument)
	}
	skippedJSON, err := marshalNullable(opts.SkippedServices)
	if err != nil {
		return 0, fmt.Errorf("%w: skipped_services not serializable", ErrInvalidArgument)
	}

	var runID int64
	err = s.withTx(ctx, "create_run", 0, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO run (started_at, domain, cli_args_json, skipped_services_json, overall_status)
			 VALUES (?, ?, ?, ?, ?)`,
			time.Now().UTC().Format(time.RFC3339),
			nullableString(opts.Domain),
			cliArgsJSON,
			skippedJSON,
			string(RunStatusInProgress),
		)
		if err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}
		runID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading run id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return runID, nil
}

// StartSection creates a section row with status in_progress, records the
// current monotonic instant for it, and returns the new section id.
func (s *Store) StartSection(ctx context.Context, runID int64, name string) (int64, error) {
	if err := validateID(runID, "run_id"); err != nil {
		return 0, err
	}
	if err := validateNonEmpty(name, "name"); err != nil {
		return 0, err
	}

	var sectionID int64
	err := s.withTx(ctx, "start_section", runID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"INSERT INTO section (run_id, name, status) VALUES (?, ?, ?)",
			runID, name, string(SectionStatusInProgress),
		)
		if err != nil {
			return fmt.Errorf("inserting section: %w", err)
		}
		sectionID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading section id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Record the start instant only after the row is committed, so an
	// aborted insert leaves no tracker entry behind.
	s.tracker.Start(sectionID)
	return sectionID, nil
}

// CompleteSection marks a section complete, recording its elapsed duration.
//
// When the section was never started by this process the duration is left
// unset rather than treated as an error; completing an unknown id still
// succeeds, mirroring the append-only, no-restart lifecycle.
func (s *Store) CompleteSection(ctx context.Context, sectionID int64) error {
	if err := validateID(sectionID, "section_id"); err != nil {
		return err
	}

	var duration any
	if elapsed, ok := s.tracker.Complete(sectionID); ok {
		duration = elapsed.Seconds()
	}

	return s.withTx(ctx, "complete_section", sectionID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE section SET status = ?, duration_s = ? WHERE id = ?",
			string(SectionStatusComplete), duration, sectionID,
		)
		if err != nil {
			return fmt.Errorf("updating section: %w", err)
		}
		return nil
	})
}

// InsertFinding records a single finding for a section.
func (s *Store) InsertFinding(ctx context.Context, sectionID int64, severity, message string) error {
	if err := validateID(sectionID, "section_id"); err != nil {
		return err
	}
	if err := validateNonEmpty(severity, "severity"); err != nil {
		return err
	}
	if err := validateNonEmpty(message, "message"); err != nil {
		return err
	}

	return s.withTx(ctx, "insert_finding", sectionID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO finding (section_id, severity, message) VALUES (?, ?, ?)",
			sectionID, severity, message,
		)
		if err != nil {
			return fmt.Errorf("inserting finding: %w", err)
		}
		return nil
	})
}

// InsertStat records a named metric value for a section. Values are stored
// as strings even when semantically numeric or boolean.
func (s *Store) InsertStat(ctx context.Context, sectionID int64, key, value string) error {
	if err := validateID(sectionID, "section_id"); err != nil {
		return err
	}
	if err := validateNonEmpty(key, "key"); err != nil {
		return err
	}

	return s.withTx(ctx, "insert_stat", sectionID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO stat (section_id, key, value) VALUES (?, ?, ?)",
			sectionID, key, value,
		)
		if err != nil {
			return fmt.Errorf("inserting stat: %w", err)
		}
		return nil
	})
}

// InsertRaw stores an opaque payload captured by a check. The payload is
// an uninterpreted byte blob; its internal schema is not enforced here.
func (s *Store) InsertRaw(ctx context.Context, sectionID int64, data []byte) error {
	if err := validateID(sectionID, "section_id"); err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%w: data must not be nil", ErrInvalidArgument)
	}

	return s.withTx(ctx, "insert_raw", sectionID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO raw_object (section_id, data) VALUES (?, ?)",
			sectionID, data,
		)
		if err != nil {
			return fmt.Errorf("inserting raw object: %w", err)
		}
		return nil
	})
}

// FinalizeRun sets the completion timestamp and overall status of a run.
//
// A run is finalised exactly once: a second call returns ErrAlreadyFinalized
// and leaves the first terminal status in place. Finalising a run that does
// not exist returns ErrRunNotFound.
func (s *Store) FinalizeRun(ctx context.Context, runID int64, status RunStatus) error {
	if err := validateID(runID, "run_id"); err != nil {
		return err
	}
	if err := validateNonEmpty(string(status), "overall_status"); err != nil {
		return err
	}

	return s.withTx(ctx, "finalize_run", runID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE run SET completed_at = ?, overall_status = ? WHERE id = ? AND completed_at IS NULL",
			time.Now().UTC().Format(time.RFC3339), string(status), runID,
		)
		if err != nil {
			return fmt.Errorf("updating run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if affected == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM run WHERE id = ?", runID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("checking run existence: %w", err)
			}
			if exists == 0 {
				return ErrRunNotFound
			}
			return ErrAlreadyFinalized
		}
		return nil
	})
}

// withTx runs fn inside a transaction on a pooled handle.
//
// On any failure the transaction is rolled back, the error is logged with
// the operation name and offending identifier, and a *StorageError is
// returned. Domain sentinels raised by fn pass through unwrapped. The
// handle is released on every path.
func (s *Store) withTx(ctx context.Context, op string, recordID int64, fn func(tx *sql.Tx) error) error {
	conn, err := s.pool.Acquire()
	if err != nil {
		return &StorageError{Op: op, RecordID: recordID, Err: err}
	}
	defer s.pool.Release(conn)

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error("transaction begin failed", "op", op, "record_id", recordID, "error", err)
		return &StorageError{Op: op, RecordID: recordID, Err: err}
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", "op", op, "record_id", recordID, "error", rbErr)
		}
		if errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrAlreadyFinalized) {
			return err
		}
		s.log.Error("write rolled back", "op", op, "record_id", recordID, "error", err)
		return &StorageError{Op: op, RecordID: recordID, Err: err}
	}

	if err := tx.Commit(); err != nil {
		s.log.Error("commit failed", "op", op, "record_id", recordID, "error", err)
		return &StorageError{Op: op, RecordID: recordID, Err: err}
	}
	return nil
}

// marshalNullable serializes v to JSON text, or nil for a nil value so the
// column stores NULL instead of "null".
func marshalNullable(v any) (any, error) {
	switch value := v.(type) {
	case map[string]string:
		if value == nil {
			return nil, nil
		}
	case []string:
		if value == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
