package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ramzi-kassab/floorman-api/internal/models"
)

// Retrievable is the capability contract a record type implements to take part
// in the undo workflow. Implementations are registered under their type tag and
// dispatched through the registry; domain types hold a delegate rather than
// inheriting transition logic.
type Retrievable interface {
	// TypeTag identifies the record type in (type, id) target references.
	TypeTag() string
	// Snapshot serialises the record's current state, soft-deleted rows included.
	Snapshot(ctx context.Context, id string) ([]byte, error)
	// Dependencies reports downstream records referencing the target. A
	// non-empty result routes the request to manual review. When in doubt a
	// relation must be reported, not silently ignored.
	Dependencies(ctx context.Context, id string) ([]models.DependencyDescriptor, error)
	// Blockers reports type-specific conditions under which the undo action is
	// not physically meaningful for the record's current state.
	Blockers(ctx context.Context, id string, action models.RetrievalAction) ([]string, error)
	// Undo applies the reversal inside the completion transaction. It must
	// mutate the target fully or not at all.
	Undo(ctx context.Context, tx sqlx.ExtContext, request *models.RetrievalRequest) error
}

// SupervisorResolver may be implemented by a Retrievable to override the
// default reporting-chain lookup.
type SupervisorResolver interface {
	ResolveSupervisor(ctx context.Context, employeeID string) (string, error)
}

// RetrievableConfig carries per-type policy, fixed at registration time.
type RetrievableConfig struct {
	// AutoApproveWindow bounds how long after creation a request may still be
	// auto-approved. Zero falls back to the registry default.
	AutoApproveWindow time.Duration
	// ManualActions lists action types that always require a human decision.
	ManualActions []models.RetrievalAction
}

func (c RetrievableConfig) manual(action models.RetrievalAction) bool {
	for _, a := range c.ManualActions {
		if a == action {
			return true
		}
	}
	return false
}

// RetrievableRegistry maps type tags to registered capabilities.
type RetrievableRegistry struct {
	mu            sync.RWMutex
	entries       map[string]registeredTarget
	defaultWindow time.Duration
}

type registeredTarget struct {
	target Retrievable
	config RetrievableConfig
}

// NewRetrievableRegistry builds a registry with the given default window.
func NewRetrievableRegistry(defaultWindow time.Duration) *RetrievableRegistry {
	if defaultWindow <= 0 {
		defaultWindow = 15 * time.Minute
	}
	return &RetrievableRegistry{
		entries:       make(map[string]registeredTarget),
		defaultWindow: defaultWindow,
	}
}

// Register adds a capability under its type tag. Registering the same tag
// twice is a wiring mistake and fails loudly.
func (r *RetrievableRegistry) Register(target Retrievable, config RetrievableConfig) error {
	if target == nil {
		return fmt.Errorf("retrievable registration requires a target")
	}
	tag := target.TypeTag()
	if tag == "" {
		return fmt.Errorf("retrievable registration requires a type tag")
	}
	if config.AutoApproveWindow <= 0 {
		config.AutoApproveWindow = r.defaultWindow
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tag]; exists {
		return fmt.Errorf("retrievable type %q already registered", tag)
	}
	r.entries[tag] = registeredTarget{target: target, config: config}
	return nil
}

// Lookup resolves a capability and its policy by type tag.
func (r *RetrievableRegistry) Lookup(tag string) (Retrievable, RetrievableConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[tag]
	if !ok {
		return nil, RetrievableConfig{}, false
	}
	return entry.target, entry.config, true
}
