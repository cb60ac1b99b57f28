// Package meta matches the metadata documents providers attach to courses
// against locally stored programmes and lays the result out as a table.
package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Scope says which shape a metadata document has
type Scope string

const (
	ScopeProgramme Scope = "programme"
	ScopeGlobal    Scope = "global"
)

var (
	ErrEmptyDocument     = errors.New("empty metadata document")
	ErrUnknownShape      = errors.New("metadata document is neither programme nor global scoped")
	ErrAmbiguousDocument = errors.New("metadata document is both programme and global scoped")
)

// Record ties a course to one programme in a programme-scoped document
type Record struct {
	ProgrammeID string
	Year        string
	Mandatory   bool
}

// Document is a decoded course metadata document. Records is set for
// programme scope; EQFLevel and Year for global scope.
type Document struct {
	Scope    Scope
	Records  []Record
	EQFLevel int
	Year     string
}

type programmeRecord struct {
	ID        flexString `json:"id"`
	Year      flexString `json:"year"`
	Mandatory flexBool   `json:"mandatory_credits"`
}

type globalSection struct {
	EQFLevel flexInt    `json:"eqf_level"`
	Year     flexString `json:"year"`
}

// ParseDocument decodes raw into a Document. Exactly one of the "programme"
// and "global" members must be present.
func ParseDocument(raw []byte) (*Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrEmptyDocument
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(top) == 0 {
		return nil, ErrEmptyDocument
	}

	programmes, hasProgramme := top[string(ScopeProgramme)]
	global, hasGlobal := top[string(ScopeGlobal)]

	switch {
	case hasProgramme && hasGlobal:
		return nil, ErrAmbiguousDocument
	case hasProgramme:
		return parseProgrammeScope(programmes)
	case hasGlobal:
		return parseGlobalScope(global, top["year"])
	}
	return nil, ErrUnknownShape
}

func parseProgrammeScope(raw json.RawMessage) (*Document, error) {
	var records []programmeRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode programme records: %w", err)
	}

	doc := &Document{Scope: ScopeProgramme, Records: make([]Record, 0, len(records))}
	for _, r := range records {
		doc.Records = append(doc.Records, Record{
			ProgrammeID: string(r.ID),
			Year:        string(r.Year),
			Mandatory:   bool(r.Mandatory),
		})
	}
	return doc, nil
}

func parseGlobalScope(raw, year json.RawMessage) (*Document, error) {
	var g globalSection
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode global section: %w", err)
	}

	doc := &Document{Scope: ScopeGlobal, EQFLevel: int(g.EQFLevel), Year: string(g.Year)}
	if len(year) > 0 {
		var y flexString
		if err := json.Unmarshal(year, &y); err != nil {
			return nil, fmt.Errorf("decode year: %w", err)
		}
		if y != "" {
			doc.Year = string(y)
		}
	}
	return doc, nil
}

// ProgrammeIDs returns the remote programme IDs a programme-scoped document
// names, without duplicates, in document order.
func (d *Document) ProgrammeIDs() []string {
	seen := make(map[string]bool, len(d.Records))
	var ids []string
	for _, r := range d.Records {
		if r.ProgrammeID == "" || seen[r.ProgrammeID] {
			continue
		}
		seen[r.ProgrammeID] = true
		ids = append(ids, r.ProgrammeID)
	}
	return ids
}

// Providers are loose about scalar types: years arrive as numbers, flags as
// "1" or 0, levels as strings. The flex types below accept any scalar.

type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	v, err := scalar(data)
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = flexString(t)
	case json.Number:
		*s = flexString(t.String())
	case bool:
		*s = ""
		if t {
			*s = "1"
		}
	default:
		*s = ""
	}
	return nil
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	v, err := scalar(data)
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case json.Number:
		f, err := t.Float64()
		*b = flexBool(err == nil && f != 0)
	case string:
		s := strings.TrimSpace(t)
		if parsed, err := strconv.ParseBool(s); err == nil {
			*b = flexBool(parsed)
		} else {
			*b = flexBool(s != "")
		}
	default:
		*b = false
	}
	return nil
}

type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	v, err := scalar(data)
	if err != nil {
		return err
	}
	*n = 0
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			*n = flexInt(i)
		} else if f, err := t.Float64(); err == nil {
			*n = flexInt(int(f))
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			*n = flexInt(i)
		}
	case bool:
		if t {
			*n = 1
		}
	}
	return nil
}

func scalar(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return nil, fmt.Errorf("expected a scalar, got %s", data)
	}
	return v, nil
}
