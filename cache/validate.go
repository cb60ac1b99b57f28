package cache

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidKeyShape is returned for keys with missing or inconsistent parts
	ErrInvalidKeyShape = errors.New("invalid cache key")

	// ErrUnsupportedResourceType is returned when a resource type is outside the allowed set
	ErrUnsupportedResourceType = errors.New("unsupported resource type")

	// ErrUnsupportedFilterType is returned when a filter type is outside the allowed set
	ErrUnsupportedFilterType = errors.New("unsupported filter type")

	// ErrTypeMismatch is returned when a key holds a different type than the caller expects
	ErrTypeMismatch = errors.New("resource type mismatch")
)

var (
	// CollectionTypes are the resource types that can be loaded as collections
	CollectionTypes = []ResourceType{Programme, Course}

	// FilterTypes are the resource types a collection can be filtered by
	FilterTypes = []ResourceType{OUnit, Programme}
)

// Validate checks the shape of k. single says whether the caller expects one
// resource (ID required) or a collection (ID forbidden). The first violated
// rule is returned.
func Validate(k Key, single bool) error {
	if k.Provider == "" {
		return fmt.Errorf("%w: empty parameter: provider", ErrInvalidKeyShape)
	}
	if k.Type == "" {
		return fmt.Errorf("%w: empty parameter: resource type", ErrInvalidKeyShape)
	}
	if single && k.ID == "" {
		return fmt.Errorf("%w: missing resource ID for single resource", ErrInvalidKeyShape)
	}
	if !single && k.ID != "" {
		return fmt.Errorf("%w: unexpected resource ID for resource collection", ErrInvalidKeyShape)
	}
	if k.FilterType != "" && k.FilterID == "" {
		return fmt.Errorf("%w: filter type provided, missing filter ID", ErrInvalidKeyShape)
	}
	if k.FilterType == "" && k.FilterID != "" {
		return fmt.Errorf("%w: filter ID provided, missing filter type", ErrInvalidKeyShape)
	}
	return nil
}

// checkCanonical rejects keys that Decode only partly consumed, such as keys
// with trailing segments or a reserved filter type.
func checkCanonical(s string, k Key) error {
	enc, err := Encode(k)
	if err != nil {
		return err
	}
	if enc != s {
		return fmt.Errorf("%w: %q is not a canonical key", ErrInvalidKeyShape, s)
	}
	return nil
}

// ValidateResourceType checks t against the allowed resource types
func ValidateResourceType(t ResourceType, allowed []ResourceType) error {
	return checkAllowed(ErrUnsupportedResourceType, t, allowed)
}

// ValidateFilterType checks t against the allowed filter types
func ValidateFilterType(t ResourceType, allowed []ResourceType) error {
	return checkAllowed(ErrUnsupportedFilterType, t, allowed)
}

func checkAllowed(sentinel error, t ResourceType, allowed []ResourceType) error {
	if slices.Contains(allowed, t) {
		return nil
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Errorf("%w: must be one of %s, %q given", sentinel, strings.Join(names, ", "), t)
}

// ValidateCollectionKey decodes and validates a collection key. A non-empty
// resourceType or filterType must be allowed for collections and must match
// what the key holds.
func ValidateCollectionKey(s string, resourceType, filterType ResourceType) error {
	k := Decode(s)
	if err := Validate(k, false); err != nil {
		return err
	}
	if err := checkCanonical(s, k); err != nil {
		return err
	}

	if resourceType != "" {
		if err := ValidateResourceType(resourceType, CollectionTypes); err != nil {
			return err
		}
		if k.Type != resourceType {
			return fmt.Errorf("%w: data contains %s instead of %s", ErrTypeMismatch, k.Type, resourceType)
		}
	}

	if filterType != "" {
		if err := ValidateFilterType(filterType, FilterTypes); err != nil {
			return err
		}
		if k.FilterType != filterType {
			return fmt.Errorf("%w: data is filtered by %q instead of %s", ErrTypeMismatch, k.FilterType, filterType)
		}
	}

	return nil
}

// ValidateResourceKey decodes and validates a single-resource key
func ValidateResourceKey(s string, resourceType ResourceType) error {
	k := Decode(s)
	if err := Validate(k, true); err != nil {
		return err
	}
	if err := checkCanonical(s, k); err != nil {
		return err
	}

	if resourceType != "" {
		if err := ValidateResourceType(resourceType, CollectionTypes); err != nil {
			return err
		}
		if k.Type != resourceType {
			return fmt.Errorf("%w: data contains %s instead of %s", ErrTypeMismatch, k.Type, resourceType)
		}
	}

	return nil
}
