// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"

	"barpos/internal/core/entity"
	"barpos/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches the display name (case-insensitive substring)
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// IncludeInactive includes soft-deleted records
	IncludeInactive bool

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Fields is a partial update keyed by column name.
type Fields map[string]any

// --- Repository Interfaces ---

// CatalogRepository is the storage port for one reference entity kind.
// Implementations never open transactions; they join the one in ctx, if any.
type CatalogRepository[T entity.Reference] interface {
	// Create inserts a new row
	Create(ctx context.Context, entity T) error

	// Save replaces all mutable columns with optimistic locking on version
	Save(ctx context.Context, entity T) error

	// FindByID retrieves a row in any state
	FindByID(ctx context.Context, id id.ID) (T, error)

	// FindActiveByID retrieves an active row; inactive rows are NOT_FOUND
	FindActiveByID(ctx context.Context, id id.ID) (T, error)

	// FindByNaturalKey returns every row (active or not) holding the normalized key
	FindByNaturalKey(ctx context.Context, key string) ([]T, error)

	// List retrieves rows with filtering, sorting and pagination
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// UpdateFields applies a partial patch and bumps version
	UpdateFields(ctx context.Context, id id.ID, fields Fields) error

	// Reactivate sets active=true
	Reactivate(ctx context.Context, id id.ID) error

	// SoftDeactivate sets active=false
	SoftDeactivate(ctx context.Context, id id.ID) error
}

// DependentsRepository exposes relationship helpers on the table holding
// dependent rows. ref names the foreign key column pointing at the parent.
type DependentsRepository interface {
	// CountActiveDependents counts live rows referencing parentID
	CountActiveDependents(ctx context.Context, ref string, parentID id.ID) (int, error)

	// ClearForeignKeyOnDependents nulls ref on live dependents
	ClearForeignKeyOnDependents(ctx context.Context, ref string, parentID id.ID) (int, error)

	// DeactivateDependents soft-deletes live dependents
	DeactivateDependents(ctx context.Context, ref string, parentID id.ID) (int, error)
}
