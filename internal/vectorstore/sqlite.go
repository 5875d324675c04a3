// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore keeps classes and objects in a SQLite database. Vectors are
// stored as little-endian float32 BLOBs and compared in Go.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for skipped objects.
func WithLogger(log *zap.Logger) Option {
	return func(s *SQLiteStore) {
		if log != nil {
			s.log = log
		}
	}
}

// OpenSQLite opens or creates the database at path and its bootstrap
// tables.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS vs_classes (
	name        TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	properties  TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vs_objects (
	id          TEXT PRIMARY KEY,
	class       TEXT NOT NULL REFERENCES vs_classes(name) ON DELETE CASCADE,
	properties  TEXT NOT NULL,
	vector      BLOB NOT NULL,
	dim         INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vs_objects_class ON vs_objects(class);`
	_, err := s.db.Exec(ddl)
	return err
}

// ClassExists reports whether a class named name exists.
func (s *SQLiteStore) ClassExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vs_classes WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking class %s: %w", name, err)
	}
	return n > 0, nil
}

// CreateClass creates class. It returns ErrClassExists if the name is
// taken.
func (s *SQLiteStore) CreateClass(ctx context.Context, class Class) error {
	if class.Name == "" {
		return fmt.Errorf("class name must not be empty")
	}
	props, err := json.Marshal(class.Properties)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO vs_classes (name, description, properties, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		class.Name, class.Description, string(props), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("creating class %s: %w", class.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrClassExists, class.Name)
	}
	return nil
}

// DeleteClass removes a class and every object in it.
func (s *SQLiteStore) DeleteClass(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vs_objects WHERE class = ?`, name); err != nil {
		return fmt.Errorf("deleting objects of %s: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM vs_classes WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting class %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	return tx.Commit()
}

// ListClasses returns every class sorted by name.
func (s *SQLiteStore) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, description, properties FROM vs_classes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		var props string
		if err := rows.Scan(&c.Name, &c.Description, &props); err != nil {
			return nil, fmt.Errorf("scanning class: %w", err)
		}
		if err := json.Unmarshal([]byte(props), &c.Properties); err != nil {
			return nil, fmt.Errorf("decoding properties of %s: %w", c.Name, err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (s *SQLiteStore) getClass(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, name string) (Class, error) {
	c := Class{Name: name}
	var props string
	err := q.QueryRowContext(ctx, `SELECT description, properties FROM vs_classes WHERE name = ?`, name).
		Scan(&c.Description, &props)
	if errors.Is(err, sql.ErrNoRows) {
		return Class{}, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	if err != nil {
		return Class{}, fmt.Errorf("reading class %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(props), &c.Properties); err != nil {
		return Class{}, fmt.Errorf("decoding properties of %s: %w", name, err)
	}
	return c, nil
}

// CreateObjects inserts objs in one transaction. Every object needs a
// non-empty vector and may only set properties its class declares.
func (s *SQLiteStore) CreateObjects(ctx context.Context, class string, objs []Object) ([]string, error) {
	if len(objs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := s.getClass(ctx, tx, class)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO vs_objects (id, class, properties, vector, dim, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	ids := make([]string, len(objs))
	for i, o := range objs {
		if len(o.Vector) == 0 {
			return nil, fmt.Errorf("object %d has no vector", i)
		}
		for k := range o.Properties {
			if !c.HasProperty(k) {
				return nil, fmt.Errorf("object %d: class %s has no property %q", i, class, k)
			}
		}
		props, err := json.Marshal(o.Properties)
		if err != nil {
			return nil, fmt.Errorf("encoding object %d: %w", i, err)
		}

		id := o.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, class, string(props), encodeVec(o.Vector), len(o.Vector), now); err != nil {
			return nil, fmt.Errorf("inserting object %d: %w", i, err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing objects: %w", err)
	}
	return ids, nil
}

// NearVector scans every object of class and ranks by certainty. Objects
// embedded with a different dimension, as left by an earlier run with
// another model, are skipped with a warning. A non-positive limit
// returns every match.
func (s *SQLiteStore) NearVector(ctx context.Context, class string, vec []float32, minSimilarity float64, limit int) ([]Match, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if _, err := s.getClass(ctx, s.db, class); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, properties, vector, dim, created_at FROM vs_objects WHERE class = ?`, class)
	if err != nil {
		return nil, fmt.Errorf("querying objects: %w", err)
	}
	defer rows.Close()

	var (
		matches []Match
		skipped int
	)
	for rows.Next() {
		var (
			m       Match
			props   string
			blob    []byte
			dim     int
			created string
		)
		if err := rows.Scan(&m.ID, &props, &blob, &dim, &created); err != nil {
			return nil, fmt.Errorf("scanning object: %w", err)
		}
		if dim != len(vec) {
			skipped++
			continue
		}

		m.Vector = decodeVec(blob)
		m.Similarity = Certainty(vec, m.Vector)
		if m.Similarity < minSimilarity {
			continue
		}
		if err := json.Unmarshal([]byte(props), &m.Properties); err != nil {
			return nil, fmt.Errorf("decoding object %s: %w", m.ID, err)
		}
		m.Class = class
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.log.Warn("skipped objects with mismatched dimension",
			zap.String("class", class),
			zap.Int("skipped", skipped),
			zap.Int("query_dim", len(vec)),
		)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Count returns the number of objects in class.
func (s *SQLiteStore) Count(ctx context.Context, class string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vs_objects WHERE class = ?`, class).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting objects: %w", err)
	}
	return n, nil
}

func encodeVec(vec []float32) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

func decodeVec(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	_ = binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec)
	return vec
}
