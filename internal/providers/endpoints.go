package providers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/briangreenhill/occapi/cache"
)

// IndexEndpoint is the provider's top-level listing
func (p Provider) IndexEndpoint() string {
	return strings.TrimRight(p.BaseURL, "/")
}

// HEIEndpoint is the provider's own institution resource
func (p Provider) HEIEndpoint() string {
	return p.join(string(cache.HEI), p.HEIID)
}

// CollectionEndpoint lists resources of type t, optionally under a filter resource
func (p Provider) CollectionEndpoint(filterType cache.ResourceType, filterID string, t cache.ResourceType) string {
	segs := []string{string(cache.HEI), p.HEIID}
	if filterType != "" && filterID != "" {
		segs = append(segs, string(filterType), filterID)
	}
	return p.join(append(segs, string(t))...)
}

// ResourceEndpoint addresses a single resource
func (p Provider) ResourceEndpoint(t cache.ResourceType, id string) string {
	return p.join(string(cache.HEI), p.HEIID, string(t), id)
}

// Endpoint maps a cache key of this provider to the URL it is loaded from
func (p Provider) Endpoint(k cache.Key) (string, error) {
	if k.Provider != p.ID {
		return "", fmt.Errorf("key provider %q does not match %q", k.Provider, p.ID)
	}

	switch {
	case k.Type == cache.Index:
		return p.IndexEndpoint(), nil
	case k.Type == cache.HEI && !k.Filtered():
		if k.ID == "" {
			return p.join(string(cache.HEI)), nil
		}
		return p.join(string(cache.HEI), k.ID), nil
	case k.ID != "":
		return p.ResourceEndpoint(k.Type, k.ID), nil
	default:
		return p.CollectionEndpoint(k.FilterType, k.FilterID, k.Type), nil
	}
}

func (p Provider) join(segs ...string) string {
	escaped := make([]string, len(segs))
	for i, s := range segs {
		escaped[i] = url.PathEscape(s)
	}
	return p.IndexEndpoint() + "/" + strings.Join(escaped, "/")
}
