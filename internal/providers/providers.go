// Package providers holds the catalogue providers this service reads from
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

var (
	// ErrUnknownProvider is returned when no provider is registered under a name
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrProviderDisabled is returned when a provider exists but is switched off
	ErrProviderDisabled = errors.New("provider disabled")
)

// Provider is one external course catalogue
type Provider struct {
	// ID is the machine name, unique within the registry
	ID          string `json:"id"`
	Label       string `json:"label"`
	BaseURL     string `json:"base_url"`
	HEIID       string `json:"hei_id"`
	OUnitFilter bool   `json:"ounit_filter"`
	Enabled     bool   `json:"status"`
}

// Validate checks that p can be used to build endpoints
func (p Provider) Validate() error {
	if p.ID == "" {
		return errors.New("provider id required")
	}
	if strings.Contains(p.ID, ".") {
		return fmt.Errorf("provider id %q must not contain '.'", p.ID)
	}
	if p.BaseURL == "" {
		return fmt.Errorf("provider %s: base_url required", p.ID)
	}
	if p.HEIID == "" {
		return fmt.Errorf("provider %s: hei_id required", p.ID)
	}
	return nil
}

// Registry manages the configured providers
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry, replacing one with the same ID
func (r *Registry) Register(p Provider) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.providers[p.ID] = p
	return nil
}

// Get retrieves a provider by ID
func (r *Registry) Get(id string) (Provider, bool) {
	p, exists := r.providers[id]
	return p, exists
}

// Enabled retrieves a provider that can be fetched from
func (r *Registry) Enabled(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	if !p.Enabled {
		return Provider{}, fmt.Errorf("%w: %s", ErrProviderDisabled, id)
	}
	return p, nil
}

// List returns all providers ordered by ID
func (r *Registry) List() []Provider {
	list := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// LoadFile builds a registry from a JSON array of provider definitions
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers: %w", err)
	}

	var list []Provider
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse providers %s: %w", path, err)
	}

	r := NewRegistry()
	for _, p := range list {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
