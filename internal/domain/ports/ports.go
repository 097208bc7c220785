// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// TenantConfigSource fetches per-tenant prompt configuration.
// Any error is treated by callers as a lookup failure.
type TenantConfigSource interface {
	FetchTenantConfig(ctx context.Context, tenantID string) (*entities.TenantConfig, error)
}

// PersonaResolver maps a user identity to its tenant and persona.
type PersonaResolver interface {
	// ResolvePersona returns found=false when the user is unknown.
	ResolvePersona(ctx context.Context, email string) (tenantID, personaID string, found bool, err error)
}

// LLMService generates text with a caller-selected model.
type LLMService interface {
	// Generate produces a complete response for the prompt.
	Generate(ctx context.Context, model, prompt string) (string, error)

	// GenerateStream produces a streaming response.
	// Returns a channel of StreamTokens for token-by-token output.
	GenerateStream(ctx context.Context, model, prompt string) (<-chan entities.StreamToken, error)
}

// CollectionProvisioner manages vector-store collections.
type CollectionProvisioner interface {
	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection. Returns entities.ErrCollectionExists
	// when the store reports the collection is already there.
	CreateCollection(ctx context.Context, spec entities.CollectionSpec) error

	// CreatePayloadIndex creates a keyword index on a payload field.
	CreatePayloadIndex(ctx context.Context, collection, field string) error
}

// DecisionLog stores routing decisions for later inspection.
type DecisionLog interface {
	// Record appends one decision.
	Record(ctx context.Context, rec entities.DecisionRecord) error

	// Recent returns up to limit decisions, newest first.
	Recent(ctx context.Context, limit int) ([]entities.DecisionRecord, error)
}

// FileWatcher monitors a single file for changes.
type FileWatcher interface {
	// Watch starts monitoring the file and emits events.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
