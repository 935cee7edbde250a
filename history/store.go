// Package history records stepping sessions in SQLite so a run can be
// replayed or compared later.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"q.log/lpstep/history/migrations"
	"q.log/lpstep/solver"
)

var (
	// ErrNotFound is returned for unknown sessions.
	ErrNotFound = errors.New("history: session not found")

	// ErrDuplicateStep is returned when a session already holds the iteration.
	ErrDuplicateStep = errors.New("history: step already recorded")
)

// Session is one run of an engine on one problem.
type Session struct {
	ID        int64
	Problem   string
	Method    solver.Method
	Policy    string
	CreatedAt time.Time
}

// Step is one stored snapshot.
type Step struct {
	Iteration int
	Status    string
	Objective float64
	Point     []float64
	Tables    []solver.Table
}

// StepOf converts a snapshot into its stored form.
func StepOf(s solver.Snapshot) Step {
	return Step{
		Iteration: s.Iteration,
		Status:    s.Status.String(),
		Objective: s.Objective,
		Point:     s.Point,
		Tables:    s.Tables(),
	}
}

// Store persists sessions in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
// The path ":memory:" gives a private in-memory store.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history: storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateSession starts a session and returns it with its ID set.
func (s *Store) CreateSession(ctx context.Context, problem string, method solver.Method, policy string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	sess := Session{
		Problem:   strings.TrimSpace(problem),
		Method:    method,
		Policy:    policy,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if sess.Problem == "" {
		return Session{}, fmt.Errorf("history: problem name is required")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (problem, method, policy, created_at) VALUES (?, ?, ?, ?)`,
		sess.Problem, string(sess.Method), sess.Policy, sess.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	if sess.ID, err = res.LastInsertId(); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Session returns one session by ID.
func (s *Store) Session(ctx context.Context, id int64) (Session, error) {
	var (
		sess      Session
		method    string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, problem, method, policy, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Problem, &method, &sess.Policy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	sess.Method = solver.Method(method)
	sess.CreatedAt = time.UnixMilli(createdAt).UTC()
	return sess, nil
}

// Sessions lists every session, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, problem, method, policy, created_at FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess      Session
			method    string
			createdAt int64
		)
		if err := rows.Scan(&sess.ID, &sess.Problem, &method, &sess.Policy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Method = solver.Method(method)
		sess.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Append stores one step of session id.
func (s *Store) Append(ctx context.Context, id int64, step Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	point, err := json.Marshal(step.Point)
	if err != nil {
		return fmt.Errorf("encode point: %w", err)
	}
	tables, err := json.Marshal(step.Tables)
	if err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO steps (session_id, iteration, status, objective, point, tables) VALUES (?, ?, ?, ?, ?, ?)`,
		id, step.Iteration, step.Status, step.Objective, string(point), string(tables),
	)
	switch code := sqliteCode(err); {
	case err == nil:
		return nil
	case code == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	case code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("session %d iteration %d: %w", id, step.Iteration, ErrDuplicateStep)
	default:
		return fmt.Errorf("append step: %w", err)
	}
}

// Steps returns the steps of session id in iteration order.
func (s *Store) Steps(ctx context.Context, id int64) ([]Step, error) {
	if _, err := s.Session(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, status, objective, point, tables FROM steps WHERE session_id = ? ORDER BY iteration`, id)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var out []Step
	for rows.Next() {
		var (
			st            Step
			point, tables string
		)
		if err := rows.Scan(&st.Iteration, &st.Status, &st.Objective, &point, &tables); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if err := json.Unmarshal([]byte(point), &st.Point); err != nil {
			return nil, fmt.Errorf("decode point: %w", err)
		}
		if err := json.Unmarshal([]byte(tables), &st.Tables); err != nil {
			return nil, fmt.Errorf("decode tables: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Record drains e into a new session, storing every step. It stops at the
// first terminal status or after limit steps and returns the session.
func (s *Store) Record(ctx context.Context, e solver.Engine, problem string, method solver.Method, policy string, limit int) (Session, error) {
	sess, err := s.CreateSession(ctx, problem, method, policy)
	if err != nil {
		return Session{}, err
	}
	for range limit {
		if e.Status().Terminal() {
			break
		}
		snap, err := e.Step()
		if err != nil {
			return sess, err
		}
		if err := s.Append(ctx, sess.ID, StepOf(snap)); err != nil {
			return sess, err
		}
	}
	return sess, nil
}

func sqliteCode(err error) int {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}
