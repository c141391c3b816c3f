package block

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/TTCRadio/gnuradio/errors"
)

// Factory creates a block instance from raw JSON configuration. The factory
// parses its own config and returns a fully constructed block; signature and
// port registration failures surface here, at construction time.
type Factory func(rawConfig json.RawMessage) (Block, error)

// Registration holds factory and metadata for a block type
type Registration struct {
	Name        string  `json:"name"`        // Factory name (e.g. "add", "decimate")
	Type        string  `json:"type"`        // "source", "processor", "sink", "message"
	Description string  `json:"description"` // Human-readable description
	Version     string  `json:"version"`     // Block version
	Factory     Factory `json:"-"`           // Factory function (not serializable)
}

// Registry manages block factories. It provides thread-safe registration and
// lookup so the graph-assembly collaborator can build blocks by name.
type Registry struct {
	factories map[string]*Registration
	mu        sync.RWMutex
}

// NewRegistry creates a new empty block registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]*Registration),
	}
}

// RegisterFactory registers a block factory with the given name.
// Returns an error if a factory with the same name is already registered.
func (r *Registry) RegisterFactory(name string, registration *Registration) error {
	if name == "" {
		return errors.WrapConstruction(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory name validation")
	}
	if registration == nil || registration.Factory == nil {
		return errors.WrapConstruction(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "registration validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.WrapConstruction(
			fmt.Errorf("factory %q: %w", name, errors.ErrDuplicateFactory),
			"Registry", "RegisterFactory", "duplicate factory check")
	}

	r.factories[name] = registration
	return nil
}

// Create builds a block instance using the named factory. The rawConfig is
// passed through to the factory, which performs its own parsing and
// validation.
func (r *Registry) Create(factoryName string, rawConfig json.RawMessage) (Block, error) {
	r.mu.RLock()
	registration, exists := r.factories[factoryName]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.WrapConstruction(
			fmt.Errorf("factory %q: %w", factoryName, errors.ErrUnknownFactory),
			"Registry", "Create", "factory lookup")
	}

	blk, err := registration.Factory(rawConfig)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", fmt.Sprintf("factory %q", factoryName))
	}

	// Constructed blocks must carry internally consistent signatures.
	if err := blk.InputSignature().Validate(); err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", "input signature validation")
	}
	if err := blk.OutputSignature().Validate(); err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", "output signature validation")
	}
	if err := blk.Rate().Validate(); err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", "rate validation")
	}

	return blk, nil
}

// ListFactories returns the registered factory names, sorted.
func (r *Registry) ListFactories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registration for a factory name.
func (r *Registry) Lookup(name string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	registration, exists := r.factories[name]
	return registration, exists
}

// Describe returns the descriptive metadata of a registered factory.
func (r *Registry) Describe(name string) (Metadata, bool) {
	registration, exists := r.Lookup(name)
	if !exists {
		return Metadata{}, false
	}
	return Metadata{
		Name:        registration.Name,
		Type:        registration.Type,
		Description: registration.Description,
		Version:     registration.Version,
	}, true
}

// DescribeAll returns the metadata of every registered factory, sorted by
// factory name.
func (r *Registry) DescribeAll() []Metadata {
	all := make([]Metadata, 0)
	for _, name := range r.ListFactories() {
		if meta, ok := r.Describe(name); ok {
			all = append(all, meta)
		}
	}
	return all
}
