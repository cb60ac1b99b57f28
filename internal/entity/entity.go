// Package entity holds the locally stored Programme and Course records and
// the lookups used to relate them.
package entity

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// Type names a kind of stored entity
type Type string

const (
	TypeProgramme Type = "programme"
	TypeCourse    Type = "course"
)

// Property and relation names understood by every Lookup
const (
	PropID        = "id"
	PropRemoteID  = "remote_id"
	PropProgramme = "programme" // course -> programme reference

	RelProgramme = "programme"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrNotFound        = errors.New("entity not found")
)

// Entity is anything a Lookup can return
type Entity interface {
	EntityID() uuid.UUID
	EntityType() Type
	EntityLabel() string
}

// Programme is a degree programme imported from a provider
type Programme struct {
	ID       uuid.UUID `json:"id"`
	Label    string    `json:"label"`
	RemoteID string    `json:"remote_id"`
	EQFLevel int       `json:"eqf_level"`
}

func (p Programme) EntityID() uuid.UUID { return p.ID }
func (p Programme) EntityType() Type { return TypeProgramme }
func (p Programme) EntityLabel() string { return p.Label }

// Course is a catalogue entry imported from a provider. Meta holds the raw
// metadata document the provider attached to it.
type Course struct {
	ID         uuid.UUID       `json:"id"`
	Label      string          `json:"label"`
	RemoteID   string          `json:"remote_id"`
	Term       string          `json:"term"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	Programmes []uuid.UUID     `json:"programmes,omitempty"`
}

func (c Course) EntityID() uuid.UUID { return c.ID }
func (c Course) EntityType() Type { return TypeCourse }
func (c Course) EntityLabel() string { return c.Label }

// Lookup finds stored entities
type Lookup interface {
	// FindByProperty returns the entities of type t whose property equals value
	FindByProperty(ctx context.Context, t Type, property string, value any) ([]Entity, error)

	// Referenced returns the entities e points to through relation
	Referenced(ctx context.Context, e Entity, relation string) ([]Entity, error)
}

// Programmes keeps the programmes in list, keyed by ID
func Programmes(list []Entity) map[uuid.UUID]Programme {
	out := make(map[uuid.UUID]Programme, len(list))
	for _, e := range list {
		if p, ok := e.(Programme); ok {
			out[p.ID] = p
		}
	}
	return out
}

// Courses keeps the courses in list, keyed by ID
func Courses(list []Entity) map[uuid.UUID]Course {
	out := make(map[uuid.UUID]Course, len(list))
	for _, e := range list {
		if c, ok := e.(Course); ok {
			out[c.ID] = c
		}
	}
	return out
}

// ProgrammeByID loads one programme
func ProgrammeByID(ctx context.Context, l Lookup, id uuid.UUID) (Programme, error) {
	list, err := l.FindByProperty(ctx, TypeProgramme, PropID, id)
	if err != nil {
		return Programme{}, err
	}
	for _, p := range Programmes(list) {
		return p, nil
	}
	return Programme{}, ErrNotFound
}

// CourseByID loads one course
func CourseByID(ctx context.Context, l Lookup, id uuid.UUID) (Course, error) {
	list, err := l.FindByProperty(ctx, TypeCourse, PropID, id)
	if err != nil {
		return Course{}, err
	}
	for _, c := range Courses(list) {
		return c, nil
	}
	return Course{}, ErrNotFound
}
