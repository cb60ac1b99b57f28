package meta

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/occapi/internal/entity"
)

// Resolved is what a course's metadata says about one programme. The zero
// value means the document says nothing about it.
type Resolved struct {
	Scope     Scope  `json:"scope,omitempty"`
	Year      string `json:"year,omitempty"`
	Term      string `json:"term,omitempty"`
	Mandatory bool   `json:"mandatory"`
}

func (r Resolved) Empty() bool {
	return r.Scope == ""
}

type Resolver struct {
	lookup entity.Lookup
	logger zerolog.Logger
}

type Option func(*Resolver)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func NewResolver(lookup entity.Lookup, opts ...Option) *Resolver {
	r := &Resolver{lookup: lookup, logger: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ForCourse resolves the course's metadata against each candidate programme.
// Every candidate gets an entry; one the document does not cover stays empty.
func (r *Resolver) ForCourse(course entity.Course, programmes map[uuid.UUID]entity.Programme) map[uuid.UUID]Resolved {
	out := make(map[uuid.UUID]Resolved, len(programmes))
	for id := range programmes {
		out[id] = Resolved{}
	}

	doc, err := ParseDocument(course.Meta)
	if err != nil {
		r.logger.Debug().Err(err).Str("course", course.ID.String()).Msg("course metadata not usable")
		return out
	}

	for id, p := range programmes {
		out[id] = doc.match(p, course.Term)
	}
	return out
}

// ForProgramme resolves each course's metadata against the one programme
func (r *Resolver) ForProgramme(programme entity.Programme, courses map[uuid.UUID]entity.Course) map[uuid.UUID]Resolved {
	single := map[uuid.UUID]entity.Programme{programme.ID: programme}

	out := make(map[uuid.UUID]Resolved, len(courses))
	for id, c := range courses {
		out[id] = r.ForCourse(c, single)[programme.ID]
	}
	return out
}

// ProgrammesByRemoteIDs returns the stored programmes a programme-scoped
// document names. Other documents name none.
func (r *Resolver) ProgrammesByRemoteIDs(ctx context.Context, raw []byte) (map[uuid.UUID]entity.Programme, error) {
	out := make(map[uuid.UUID]entity.Programme)

	doc, err := ParseDocument(raw)
	if err != nil || doc.Scope != ScopeProgramme {
		return out, nil
	}

	for _, remoteID := range doc.ProgrammeIDs() {
		list, err := r.lookup.FindByProperty(ctx, entity.TypeProgramme, entity.PropRemoteID, remoteID)
		if err != nil {
			return nil, fmt.Errorf("find programme %s: %w", remoteID, err)
		}
		for id, p := range entity.Programmes(list) {
			out[id] = p
		}
	}
	return out, nil
}

// RelatedCourses returns the courses that reference the programme
func (r *Resolver) RelatedCourses(ctx context.Context, programme entity.Programme) (map[uuid.UUID]entity.Course, error) {
	list, err := r.lookup.FindByProperty(ctx, entity.TypeCourse, entity.PropProgramme, programme.ID)
	if err != nil {
		return nil, fmt.Errorf("related courses: %w", err)
	}
	return entity.Courses(list), nil
}

// RelatedProgrammes returns the programmes the course references
func (r *Resolver) RelatedProgrammes(ctx context.Context, course entity.Course) (map[uuid.UUID]entity.Programme, error) {
	list, err := r.lookup.Referenced(ctx, course, entity.RelProgramme)
	if err != nil {
		return nil, fmt.Errorf("related programmes: %w", err)
	}
	return entity.Programmes(list), nil
}

// ProgrammeTable lists the programme's related courses with their metadata
func (r *Resolver) ProgrammeTable(ctx context.Context, programme entity.Programme) (Table, error) {
	courses, err := r.RelatedCourses(ctx, programme)
	if err != nil {
		return Table{}, err
	}
	labels := func(id uuid.UUID) string { return courses[id].Label }
	return Project(r.ForProgramme(programme, courses), "Course", labels), nil
}

// CourseTable lists the course's related programmes with their metadata
func (r *Resolver) CourseTable(ctx context.Context, course entity.Course) (Table, error) {
	programmes, err := r.RelatedProgrammes(ctx, course)
	if err != nil {
		return Table{}, err
	}
	labels := func(id uuid.UUID) string { return programmes[id].Label }
	return Project(r.ForCourse(course, programmes), "Programme", labels), nil
}

// match applies the document to one programme. Programme records are tried in
// document order and the first one naming the programme wins. A global
// document never matches a programme without a level.
func (d *Document) match(p entity.Programme, term string) Resolved {
	switch d.Scope {
	case ScopeProgramme:
		for _, rec := range d.Records {
			if rec.ProgrammeID != "" && rec.ProgrammeID == p.RemoteID {
				return Resolved{Scope: ScopeProgramme, Year: rec.Year, Term: term, Mandatory: rec.Mandatory}
			}
		}
	case ScopeGlobal:
		if d.EQFLevel != 0 && d.EQFLevel == p.EQFLevel {
			return Resolved{Scope: ScopeGlobal, Year: d.Year, Term: term}
		}
	}
	return Resolved{}
}
