package snapshot

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the pure-Go SQLite handle backing the local beatmapsets
// snapshot, matching the pack's UpsertX/GetX style for its own scheduling
// tables.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite file at path and applies
// the beatmapsets schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) migrate() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS beatmapsets (
			id              INTEGER PRIMARY KEY,
			mode            INTEGER NOT NULL,
			queue_date      INTEGER,
			rank_date       INTEGER NOT NULL,
			rank_date_early INTEGER,
			artist          TEXT NOT NULL DEFAULT '',
			title           TEXT NOT NULL DEFAULT '',
			mapper          TEXT NOT NULL DEFAULT '',
			mapper_id       INTEGER NOT NULL DEFAULT 0,
			probability     REAL,
			unresolved      INTEGER NOT NULL DEFAULT 0,
			beatmaps        TEXT NOT NULL DEFAULT '[]'
		)
	`)
	if err != nil {
		return fmt.Errorf("snapshot: migrate: %w", err)
	}
	return nil
}

// ReadQualified returns every row currently qualified (queue_date IS NOT
// NULL) for the given mode.
func (d *DB) ReadQualified(mode int) ([]Row, error) {
	return d.query(`SELECT id, queue_date, rank_date, rank_date_early, artist, title, mapper, mapper_id, probability, unresolved, beatmaps
		FROM beatmapsets WHERE mode = ? AND queue_date IS NOT NULL ORDER BY queue_date ASC`, mode)
}

// ReadRankedTail returns the recently-ranked rows for the given mode used
// as scheduling context: queue_date IS NULL and rank_date within the last
// DAY+HOUR.
func (d *DB) ReadRankedTail(mode int, now time.Time) ([]Row, error) {
	cutoff := now.Add(-25 * time.Hour).Unix()
	return d.query(`SELECT id, queue_date, rank_date, rank_date_early, artist, title, mapper, mapper_id, probability, unresolved, beatmaps
		FROM beatmapsets WHERE mode = ? AND queue_date IS NULL AND rank_date > ? ORDER BY rank_date ASC`, mode, cutoff)
}

func (d *DB) query(q string, args ...any) ([]Row, error) {
	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: query: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		var beatmapsJSON string
		var unresolvedInt int
		if err := rows.Scan(&r.ID, &r.QueueDate, &r.RankDate, &r.RankDateEarly, &r.Artist, &r.Title, &r.Mapper, &r.MapperID, &r.Probability, &unresolvedInt, &beatmapsJSON); err != nil {
			return nil, fmt.Errorf("snapshot: scan: %w", err)
		}
		r.Unresolved = unresolvedInt == 1
		beatmaps, err := unmarshalBeatmaps(beatmapsJSON)
		if err != nil {
			return nil, fmt.Errorf("snapshot: unmarshal beatmaps for set %d: %w", r.ID, err)
		}
		r.Beatmaps = beatmaps
		result = append(result, r)
	}
	return result, rows.Err()
}

// WriteAll replaces the row set for one mode inside a single transaction,
// so that mode's rows are replaced all-or-nothing. Each call is its own
// transaction; writes for different modes are not atomic together.
func (d *DB) WriteAll(mode int, rows []Row) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM beatmapsets WHERE mode = ?`, mode); err != nil {
		return fmt.Errorf("snapshot: clear mode %d: %w", mode, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO beatmapsets
		(id, mode, queue_date, rank_date, rank_date_early, artist, title, mapper, mapper_id, probability, unresolved, beatmaps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		beatmapsJSON, err := marshalBeatmaps(r.Beatmaps)
		if err != nil {
			return fmt.Errorf("snapshot: marshal beatmaps for set %d: %w", r.ID, err)
		}
		unresolvedInt := 0
		if r.Unresolved {
			unresolvedInt = 1
		}
		if _, err := stmt.Exec(r.ID, mode, r.QueueDate, r.RankDate, r.RankDateEarly, r.Artist, r.Title, r.Mapper, r.MapperID, r.Probability, unresolvedInt, beatmapsJSON); err != nil {
			return fmt.Errorf("snapshot: insert set %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot: commit: %w", err)
	}
	return nil
}
