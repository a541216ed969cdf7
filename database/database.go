package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"
	"github.com/replycorpus/curator/database/db"
	"github.com/replycorpus/curator/model"
)

type Database struct {
	connString string
	pool       *pgxpool.Pool
}

func NewDatabase(connString string) *Database {
	return &Database{
		connString: connString,
	}
}

func (d *Database) Connect(ctx context.Context) error {
	var err error
	d.pool, err = pgxpool.New(ctx, d.connString)
	if err != nil {
		return err
	}
	// pgxpool connects lazily, so force a round-trip to surface bad
	// credentials or an unreachable host before the first pass starts.
	return d.pool.Ping(ctx)
}

func (d *Database) Disconnect() {
	d.pool.Close()
}

// CreateSchema creates the comments and harvest_runs tables if they are missing.
func (d *Database) CreateSchema(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS comments (
		comment_id TEXT PRIMARY KEY,
		author TEXT NOT NULL,
		creation_time BIGINT NOT NULL,
		comment_text TEXT NOT NULL,
		comment_perma TEXT NOT NULL,
		removed INTEGER NOT NULL,
		last_checked BIGINT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS harvest_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started TIMESTAMPTZ NOT NULL,
		examined INTEGER NOT NULL,
		affected INTEGER NOT NULL
	)`)
	return err
}

// InsertComment stores a captured reply keyed by its forum id. Inserting an
// id that already exists is a no-op; the return value reports whether a new
// row was actually written.
func (d *Database) InsertComment(ctx context.Context, reply model.CapturedReply) (bool, error) {
	tag, err := d.pool.Exec(ctx, `
	INSERT INTO comments (comment_id, author, creation_time, comment_text, comment_perma, removed, last_checked)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (comment_id) DO NOTHING`,
		reply.ID,
		reply.Author,
		reply.CreatedAt.Unix(),
		reply.Text,
		reply.Permalink,
		reply.Status.RemovedCode(),
		reply.LastChecked.Unix(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SelectCheckableIDs returns the ids of comments not yet confirmed removed,
// optionally restricted to those created after the given epoch second.
func (d *Database) SelectCheckableIDs(ctx context.Context, createdAfter *int64) ([]string, error) {
	var rows pgx.Rows
	var err error
	if createdAfter == nil {
		rows, err = d.pool.Query(ctx, `
		SELECT comment_id FROM comments WHERE removed <> $1`,
			model.StatusRemoved.RemovedCode(),
		)
	} else {
		rows, err = d.pool.Query(ctx, `
		SELECT comment_id FROM comments WHERE removed <> $1 AND creation_time > $2`,
			model.StatusRemoved.RemovedCode(),
			*createdAfter,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateStatus records the outcome of a re-check for one comment.
func (d *Database) UpdateStatus(ctx context.Context, id string, status model.Status, lastChecked time.Time) error {
	_, err := d.pool.Exec(ctx, `
	UPDATE comments SET removed = $1, last_checked = $2 WHERE comment_id = $3`,
		status.RemovedCode(),
		lastChecked.Unix(),
		id,
	)
	return err
}

func (d *Database) GetComment(ctx context.Context, id string) (*model.CapturedReply, error) {
	rows, err := d.pool.Query(ctx, `
	SELECT
		comment_id,
		author,
		creation_time,
		comment_text,
		comment_perma,
		removed,
		last_checked
	FROM comments
	WHERE comment_id = $1`,
		id,
	)
	if err != nil {
		return nil, err
	}

	raw, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[db.Comment])
	if err != nil {
		return nil, err
	}
	return model.CapturedReplyFromComment(raw)
}

// CountByStatus tallies the stored comments per takedown status.
func (d *Database) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := d.pool.Query(ctx, `
	SELECT removed, COUNT(*) FROM comments GROUP BY removed`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var code, n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, err
		}
		status, err := model.StatusFromRemovedCode(code)
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// RecordRun writes an audit row for a completed gather or check pass.
func (d *Database) RecordRun(ctx context.Context, kind db.RunKind, started time.Time, examined int, affected int) error {
	// don't really care about the result, as long as this succeeds
	_, err := d.pool.Exec(ctx, `
	INSERT INTO harvest_runs (id, kind, started, examined, affected) VALUES ($1, $2, $3, $4, $5)`,
		cuid.New(),
		kind,
		started.UTC(), // the DB stores timezones and assumes UTC
		examined,
		affected,
	)
	return err
}

// LatestRuns returns the most recent audit rows, newest first.
func (d *Database) LatestRuns(ctx context.Context, limit int) ([]db.HarvestRun, error) {
	rows, err := d.pool.Query(ctx, `
	SELECT
		id,
		kind,
		started,
		examined,
		affected
	FROM harvest_runs
	ORDER BY started DESC
	LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[db.HarvestRun])
}
