package cache

import (
	"fmt"
	"strings"
)

// Delimiter separates the segments of an encoded key
const Delimiter = "."

// ResourceType is the JSON:API type of a catalogue resource
type ResourceType string

const (
	HEI       ResourceType = "hei"
	Programme ResourceType = "programme"
	Course    ResourceType = "course"
	OUnit     ResourceType = "ounit"

	// Index marks the provider's top-level listing. It only appears in index keys.
	Index ResourceType = "index"
)

// Key identifies one cached payload: a single resource when ID is set,
// otherwise a collection, optionally narrowed by a filter resource.
type Key struct {
	Provider   string
	FilterType ResourceType
	FilterID   string
	Type       ResourceType
	ID         string
}

// Filtered reports whether both filter fields are set
func (k Key) Filtered() bool {
	return k.FilterType != "" && k.FilterID != ""
}

// Single reports whether the key denotes one resource rather than a collection
func (k Key) Single() bool {
	return k.ID != ""
}

// String returns the encoded key, or an empty string for malformed keys
func (k Key) String() string {
	s, err := Encode(k)
	if err != nil {
		return ""
	}
	return s
}

// Encode builds the flat key: provider, [filterType, filterID], type, [id].
// Only an unfiltered institution ID may contain the delimiter, since that is
// the only shape Decode can split back unambiguously.
func Encode(k Key) (string, error) {
	if (k.FilterType == "") != (k.FilterID == "") {
		return "", fmt.Errorf("%w: filter type and filter ID must be set together", ErrInvalidKeyShape)
	}
	if k.Filtered() && (k.FilterType == HEI || k.FilterType == Index) {
		return "", fmt.Errorf("%w: %s cannot be used as a filter type", ErrInvalidKeyShape, k.FilterType)
	}

	for _, seg := range []string{k.Provider, string(k.FilterType), k.FilterID, string(k.Type)} {
		if strings.Contains(seg, Delimiter) {
			return "", fmt.Errorf("%w: segment %q contains %q", ErrInvalidKeyShape, seg, Delimiter)
		}
	}
	if strings.Contains(k.ID, Delimiter) && (k.Type != HEI || k.Filtered()) {
		return "", fmt.Errorf("%w: resource ID %q contains %q", ErrInvalidKeyShape, k.ID, Delimiter)
	}

	parts := []string{k.Provider}
	if k.Filtered() {
		parts = append(parts, string(k.FilterType), k.FilterID)
	}
	parts = append(parts, string(k.Type))
	if k.ID != "" {
		parts = append(parts, k.ID)
	}

	return strings.Join(parts, Delimiter), nil
}

// Decode splits an encoded key back into its parts.
//
// Institution IDs are opaque remote strings that may contain the delimiter, so
// the HEI shape is recognised first from the second segment and the rest is
// kept verbatim. Any other key is split fully; more than three segments means
// the key carries a filter.
func Decode(s string) Key {
	parts := strings.SplitN(s, Delimiter, 3)
	if len(parts) > 1 && ResourceType(parts[1]) == HEI {
		k := Key{Provider: parts[0], Type: HEI}
		if len(parts) == 3 {
			k.ID = parts[2]
		}
		return k
	}

	parts = strings.Split(s, Delimiter)
	k := Key{Provider: parts[0]}

	if len(parts) > 3 {
		k.FilterType = ResourceType(parts[1])
		k.FilterID = parts[2]
		k.Type = ResourceType(parts[3])
		if len(parts) > 4 {
			k.ID = parts[4]
		}
		return k
	}

	if len(parts) > 1 {
		k.Type = ResourceType(parts[1])
	}
	if len(parts) > 2 {
		k.ID = parts[2]
	}
	return k
}

// IndexKey returns the key of a provider's index entry
func IndexKey(provider string) string {
	return provider + Delimiter + string(Index)
}

// IsIndexKey reports whether s is an index key. The bare token "index" is
// accepted for stores that hold a single provider.
func IsIndexKey(s string) bool {
	if s == string(Index) {
		return true
	}
	k := Decode(s)
	return k.Type == Index && !k.Filtered() && k.ID == ""
}
