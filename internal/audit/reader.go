package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gaudit-core/internal/infrastructure/database"
)

// Reader reconstructs the nested run → sections → findings/stats tree for
// reporting and analytics consumers.
//
// All reads are non-locking point-in-time snapshots at the storage
// engine's default isolation. Missing data yields an empty result, not an
// error, distinguishing "nothing recorded yet" from failure. The returned
// trees are plain values; consumers must not attempt to write them back.
type Reader struct {
	pool *database.Pool
}

// NewReader creates a Reader over the pool's location.
func NewReader(pool *database.Pool) *Reader {
	return &Reader{pool: pool}
}

const runColumns = `id, started_at, completed_at, domain, cli_args_json, skipped_services_json, overall_status`

// FetchLastRun returns the highest-id run with its full section tree, or
// nil when the store contains no runs. It works before or after the run
// has been finalised.
func (r *Reader) FetchLastRun(ctx context.Context) (*Run, error) {
	conn, err := r.pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("fetching last run: %w", err)
	}
	defer r.pool.Release(conn)

	row := conn.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM run ORDER BY id DESC LIMIT 1",
	)
	return r.buildRun(ctx, conn, row)
}

// FetchRun returns the run with the given id and its full section tree, or
// nil when no such run exists. Non-positive ids are treated as absent.
func (r *Reader) FetchRun(ctx context.Context, runID int64) (*Run, error) {
	if runID <= 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("fetching run %d: %w", runID, err)
	}
	defer r.pool.Release(conn)

	row := conn.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM run WHERE id = ?", runID,
	)
	return r.buildRun(ctx, conn, row)
}

// FetchRawObjects returns the opaque payloads captured for a section in
// insertion order. An unknown section yields an empty slice.
func (r *Reader) FetchRawObjects(ctx context.Context, sectionID int64) ([]RawObject, error) {
	if sectionID <= 0 {
		return []RawObject{}, nil
	}

	conn, err := r.pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("fetching raw objects: %w", err)
	}
	defer r.pool.Release(conn)

	rows, err := conn.QueryContext(ctx,
		"SELECT id, section_id, data FROM raw_object WHERE section_id = ? ORDER BY rowid",
		sectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying raw objects: %w", err)
	}
	defer rows.Close()

	objects := []RawObject{}
	for rows.Next() {
		var obj RawObject
		if err := rows.Scan(&obj.ID, &obj.SectionID, &obj.Data); err != nil {
			return nil, fmt.Errorf("scanning raw object: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating raw objects: %w", err)
	}
	return objects, nil
}

// buildRun scans a run row and attaches its section tree. A missing row
// yields (nil, nil).
func (r *Reader) buildRun(ctx context.Context, conn *database.Conn, row *sql.Row) (*Run, error) {
	var (
		run         Run
		startedAt   string
		completedAt sql.NullString
		domain      sql.NullString
		cliArgs     sql.NullString
		skipped     sql.NullString
		status      string
	)

	err := row.Scan(&run.ID, &startedAt, &completedAt, &domain, &cliArgs, &skipped, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.StartedAt, err = parseTimestamp(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing run started_at: %w", err)
	}
	if completedAt.Valid {
		t, err := parseTimestamp(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing run completed_at: %w", err)
		}
		run.CompletedAt = &t
	}
	if domain.Valid {
		run.Domain = domain.String
	}
	if cliArgs.Valid && cliArgs.String != "" {
		if err := json.Unmarshal([]byte(cliArgs.String), &run.CLIArgs); err != nil {
			return nil, fmt.Errorf("decoding cli_args: %w", err)
		}
	}
	if skipped.Valid && skipped.String != "" {
		if err := json.Unmarshal([]byte(skipped.String), &run.SkippedServices); err != nil {
			return nil, fmt.Errorf("decoding skipped_services: %w", err)
		}
	}
	run.OverallStatus = RunStatus(status)

	run.Sections, err = r.fetchSections(ctx, conn, run.ID)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// fetchSections returns the sections of a run ordered by ascending id, each
// nested with its findings and stats. Ascending id order reconstructs run
// order, since section ids are assigned in execution sequence.
func (r *Reader) fetchSections(ctx context.Context, conn *database.Conn, runID int64) ([]Section, error) {
	rows, err := conn.QueryContext(ctx,
		"SELECT id, run_id, name, status, duration_s FROM section WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	sections := []Section{}
	for rows.Next() {
		var (
			section  Section
			status   string
			duration sql.NullFloat64
		)
		if err := rows.Scan(&section.ID, &section.RunID, &section.Name, &status, &duration); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		section.Status = SectionStatus(status)
		if duration.Valid {
			d := duration.Float64
			section.DurationSeconds = &d
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}

	// Attach findings and stats after the section cursor is drained: each
	// Conn holds a single underlying connection, so nested queries would
	// otherwise contend with the open rows.
	for i := range sections {
		sections[i].Findings, err = r.fetchFindings(ctx, conn, sections[i].ID)
		if err != nil {
			return nil, err
		}
		sections[i].Stats, err = r.fetchStats(ctx, conn, sections[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return sections, nil
}

// fetchFindings returns the findings of a section ordered by ascending id.
func (r *Reader) fetchFindings(ctx context.Context, conn *database.Conn, sectionID int64) ([]Finding, error) {
	rows, err := conn.QueryContext(ctx,
		"SELECT id, section_id, severity, message FROM finding WHERE section_id = ? ORDER BY id",
		sectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	findings := []Finding{}
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.ID, &f.SectionID, &f.Severity, &f.Message); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}
	return findings, nil
}

// fetchStats returns the stats of a section in insertion order.
func (r *Reader) fetchStats(ctx context.Context, conn *database.Conn, sectionID int64) ([]Stat, error) {
	rows, err := conn.QueryContext(ctx,
		"SELECT key, value FROM stat WHERE section_id = ? ORDER BY rowid",
		sectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	stats := []Stat{}
	for rows.Next() {
		var (
			stat  Stat
			value sql.NullString
		)
		if err := rows.Scan(&stat.Key, &value); err != nil {
			return nil, fmt.Errorf("scanning stat: %w", err)
		}
		if value.Valid {
			stat.Value = value.String
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stats: %w", err)
	}
	return stats, nil
}

// parseTimestamp parses a timestamp stored as text.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05", value)
	if fallbackErr == nil {
		return fallback, nil
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", value, err)
}
