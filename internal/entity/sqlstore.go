package entity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	programmeColumns = "p.id, p.label, p.remote_id, p.eqf_level"
	courseColumns    = "c.id, c.label, c.remote_id, c.term, c.meta"
)

const (
	coursesByProgramme = "SELECT " + courseColumns + " FROM courses c JOIN course_programmes cp ON cp.course_id = c.id WHERE cp.programme_id = $1"

	referencedProgrammes = "SELECT " + programmeColumns + " FROM programmes p JOIN course_programmes cp ON cp.programme_id = p.id WHERE cp.course_id = $1"
)

// Only these properties reach SQL; anything else is rejected before a query is built.
var (
	programmeQueries = map[string]string{
		PropID:       "SELECT " + programmeColumns + " FROM programmes p WHERE p.id = $1",
		PropRemoteID: "SELECT " + programmeColumns + " FROM programmes p WHERE p.remote_id = $1",
	}
	courseQueries = map[string]string{
		PropID:        "SELECT " + courseColumns + " FROM courses c WHERE c.id = $1",
		PropRemoteID:  "SELECT " + courseColumns + " FROM courses c WHERE c.remote_id = $1",
		PropProgramme: coursesByProgramme,
	}
)

// SQLStore implements Lookup over the programmes, courses and
// course_programmes tables
type SQLStore struct {
	db *sql.DB
}

// Open connects to Postgres through the pgx driver
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewSQLStore(db), nil
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) FindByProperty(ctx context.Context, t Type, property string, value any) ([]Entity, error) {
	arg, err := sqlArg(value)
	if err != nil {
		return nil, err
	}

	switch t {
	case TypeProgramme:
		q, ok := programmeQueries[property]
		if !ok {
			return nil, fmt.Errorf("%w: programme.%s", ErrUnknownProperty, property)
		}
		return s.queryProgrammes(ctx, q, arg)
	case TypeCourse:
		q, ok := courseQueries[property]
		if !ok {
			return nil, fmt.Errorf("%w: course.%s", ErrUnknownProperty, property)
		}
		return s.queryCourses(ctx, q, arg)
	}
	return nil, fmt.Errorf("unknown entity type %q", t)
}

func (s *SQLStore) Referenced(ctx context.Context, e Entity, relation string) ([]Entity, error) {
	if e.EntityType() != TypeCourse || relation != RelProgramme {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, e.EntityType(), relation)
	}
	return s.queryProgrammes(ctx, referencedProgrammes, e.EntityID().String())
}

func (s *SQLStore) queryProgrammes(ctx context.Context, q string, arg any) ([]Entity, error) {
	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("query programmes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entity
	for rows.Next() {
		var p Programme
		var eqf sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Label, &p.RemoteID, &eqf); err != nil {
			return nil, fmt.Errorf("scan programme: %w", err)
		}
		p.EQFLevel = int(eqf.Int64)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) queryCourses(ctx context.Context, q string, arg any) ([]Entity, error) {
	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entity
	for rows.Next() {
		var c Course
		var term sql.NullString
		var meta []byte
		if err := rows.Scan(&c.ID, &c.Label, &c.RemoteID, &term, &meta); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		c.Term = term.String
		if len(meta) > 0 {
			c.Meta = json.RawMessage(meta)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func sqlArg(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case string, int, int64:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return nil, fmt.Errorf("unsupported lookup value %T", value)
}
