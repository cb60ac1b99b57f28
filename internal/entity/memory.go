package entity

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Lookup over entities held in memory
type MemoryStore struct {
	mu         sync.RWMutex
	programmes map[uuid.UUID]Programme
	courses    map[uuid.UUID]Course
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		programmes: make(map[uuid.UUID]Programme),
		courses:    make(map[uuid.UUID]Course),
	}
}

func (m *MemoryStore) AddProgramme(p Programme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programmes[p.ID] = p
}

func (m *MemoryStore) AddCourse(c Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
}

func (m *MemoryStore) FindByProperty(ctx context.Context, t Type, property string, value any) ([]Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entity
	switch t {
	case TypeProgramme:
		for _, p := range m.programmes {
			ok, err := programmeMatches(p, property, value)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, p)
			}
		}
	case TypeCourse:
		for _, c := range m.courses {
			ok, err := courseMatches(c, property, value)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, c)
			}
		}
	default:
		return nil, fmt.Errorf("unknown entity type %q", t)
	}
	return out, nil
}

func (m *MemoryStore) Referenced(ctx context.Context, e Entity, relation string) ([]Entity, error) {
	c, ok := e.(Course)
	if !ok || relation != RelProgramme {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, e.EntityType(), relation)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entity
	for _, id := range c.Programmes {
		if p, ok := m.programmes[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func programmeMatches(p Programme, property string, value any) (bool, error) {
	switch property {
	case PropID:
		return idEquals(p.ID, value), nil
	case PropRemoteID:
		return fmt.Sprint(value) == p.RemoteID, nil
	}
	return false, fmt.Errorf("%w: programme.%s", ErrUnknownProperty, property)
}

func courseMatches(c Course, property string, value any) (bool, error) {
	switch property {
	case PropID:
		return idEquals(c.ID, value), nil
	case PropRemoteID:
		return fmt.Sprint(value) == c.RemoteID, nil
	case PropProgramme:
		return slices.ContainsFunc(c.Programmes, func(id uuid.UUID) bool { return idEquals(id, value) }), nil
	}
	return false, fmt.Errorf("%w: course.%s", ErrUnknownProperty, property)
}

func idEquals(id uuid.UUID, value any) bool {
	switch v := value.(type) {
	case uuid.UUID:
		return v == id
	case string:
		parsed, err := uuid.Parse(v)
		return err == nil && parsed == id
	}
	return false
}
