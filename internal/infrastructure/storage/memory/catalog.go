package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"barpos/internal/core/apperror"
	"barpos/internal/core/entity"
	"barpos/internal/core/id"
	"barpos/internal/domain"
)

// CatalogRepo is the in-memory implementation of domain.CatalogRepository
// and domain.DependentsRepository for one reference kind.
type CatalogRepo[T entity.Reference] struct {
	store      *Store
	rows       *table[id.ID, T]
	entityName string

	// display is matched by ListFilter.Search and used for "name" ordering
	display func(T) string
}

// NewCatalogRepo creates a repository for *E rows. display returns the
// human-readable label of a row.
func NewCatalogRepo[E any, T interface {
	*E
	entity.Reference
}](s *Store, entityName string, display func(T) string) *CatalogRepo[T] {
	clone := func(v T) T { return T(clonePtr((*E)(v))) }
	return &CatalogRepo[T]{
		store:      s,
		rows:       newTable[id.ID, T](s, clone),
		entityName: entityName,
		display:    display,
	}
}

// Create implements domain.CatalogRepository.
func (r *CatalogRepo[T]) Create(ctx context.Context, e T) error {
	return r.store.do(ctx, func() error {
		if _, ok := r.rows.rows[e.GetID()]; ok {
			return fmt.Errorf("insert %s: duplicate id %s", r.entityName, e.GetID())
		}
		if err := r.checkActiveKey(e); err != nil {
			return err
		}
		r.rows.put(e.GetID(), e)
		return nil
	})
}

// Save implements domain.CatalogRepository with optimistic locking.
func (r *CatalogRepo[T]) Save(ctx context.Context, e T) error {
	return r.store.do(ctx, func() error {
		stored, ok := r.rows.rows[e.GetID()]
		if !ok {
			return apperror.NewNotFound(r.entityName, e.GetID().String())
		}
		if stored.GetVersion() != e.GetVersion() {
			return apperror.NewConcurrentModification(r.entityName, e.GetID().String())
		}
		if err := r.checkActiveKey(e); err != nil {
			return err
		}
		e.SetVersion(e.GetVersion() + 1)
		touch(e)
		r.rows.put(e.GetID(), e)
		return nil
	})
}

// FindByID implements domain.CatalogRepository.
func (r *CatalogRepo[T]) FindByID(ctx context.Context, entityID id.ID) (T, error) {
	var out T
	err := r.store.do(ctx, func() error {
		e, ok := r.rows.get(entityID)
		if !ok {
			return apperror.NewNotFound(r.entityName, entityID.String())
		}
		out = e
		return nil
	})
	return out, err
}

// FindActiveByID implements domain.CatalogRepository.
func (r *CatalogRepo[T]) FindActiveByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := r.FindByID(ctx, entityID)
	if err != nil {
		return e, err
	}
	if !e.IsActive() {
		var zero T
		return zero, apperror.NewNotFound(r.entityName, entityID.String())
	}
	return e, nil
}

// FindByNaturalKey implements domain.CatalogRepository.
func (r *CatalogRepo[T]) FindByNaturalKey(ctx context.Context, key string) ([]T, error) {
	var out []T
	err := r.store.do(ctx, func() error {
		for _, e := range r.rows.rows {
			if e.NaturalKey() == key {
				out = append(out, r.rows.clone(e))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b T) int { return compareIDs(a.GetID(), b.GetID()) })
	return out, err
}

// List implements domain.CatalogRepository.
func (r *CatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	res := domain.ListResult[T]{Items: make([]T, 0), Limit: filter.Limit, Offset: filter.Offset}
	err := r.store.do(ctx, func() error {
		search := strings.ToLower(filter.Search)
		var matched []T
		for _, e := range r.rows.rows {
			if !filter.IncludeInactive && !e.IsActive() {
				continue
			}
			if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, e.GetID()) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(r.display(e)), search) &&
				!strings.Contains(e.NaturalKey(), search) {
				continue
			}
			matched = append(matched, r.rows.clone(e))
		}

		r.sort(matched, filter.OrderBy)
		res.TotalCount = int64(len(matched))
		res.Items = paginate(matched, filter.Limit, filter.Offset)
		return nil
	})
	return res, err
}

// UpdateFields implements domain.CatalogRepository.
func (r *CatalogRepo[T]) UpdateFields(ctx context.Context, entityID id.ID, fields domain.Fields) error {
	return r.store.do(ctx, func() error {
		e, ok := r.rows.get(entityID)
		if !ok {
			return apperror.NewNotFound(r.entityName, entityID.String())
		}
		if err := setColumns(e, fields); err != nil {
			return fmt.Errorf("update %s: %w", r.entityName, err)
		}
		if err := r.checkActiveKey(e); err != nil {
			return err
		}
		e.SetVersion(e.GetVersion() + 1)
		touch(e)
		r.rows.put(entityID, e)
		return nil
	})
}

// Reactivate implements domain.CatalogRepository.
func (r *CatalogRepo[T]) Reactivate(ctx context.Context, entityID id.ID) error {
	return r.setActive(ctx, entityID, true)
}

// SoftDeactivate implements domain.CatalogRepository.
func (r *CatalogRepo[T]) SoftDeactivate(ctx context.Context, entityID id.ID) error {
	return r.setActive(ctx, entityID, false)
}

func (r *CatalogRepo[T]) setActive(ctx context.Context, entityID id.ID, active bool) error {
	return r.store.do(ctx, func() error {
		e, ok := r.rows.get(entityID)
		if !ok {
			return apperror.NewNotFound(r.entityName, entityID.String())
		}
		e.SetActive(active)
		if err := r.checkActiveKey(e); err != nil {
			return err
		}
		e.SetVersion(e.GetVersion() + 1)
		touch(e)
		r.rows.put(entityID, e)
		return nil
	})
}

// --- domain.DependentsRepository ---

// CountActiveDependents counts active rows whose ref column equals parentID.
func (r *CatalogRepo[T]) CountActiveDependents(ctx context.Context, ref string, parentID id.ID) (int, error) {
	n := 0
	err := r.store.do(ctx, func() error {
		for _, e := range r.rows.rows {
			match, err := r.references(e, ref, parentID)
			if err != nil {
				return err
			}
			if match && e.IsActive() {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ClearForeignKeyOnDependents nulls ref on active dependents of parentID.
func (r *CatalogRepo[T]) ClearForeignKeyOnDependents(ctx context.Context, ref string, parentID id.ID) (int, error) {
	return r.updateDependents(ctx, ref, parentID, domain.Fields{ref: nil})
}

// DeactivateDependents soft-deletes active dependents of parentID.
func (r *CatalogRepo[T]) DeactivateDependents(ctx context.Context, ref string, parentID id.ID) (int, error) {
	return r.updateDependents(ctx, ref, parentID, domain.Fields{"active": false})
}

func (r *CatalogRepo[T]) updateDependents(ctx context.Context, ref string, parentID id.ID, fields domain.Fields) (int, error) {
	n := 0
	err := r.store.do(ctx, func() error {
		for rowID, e := range r.rows.rows {
			match, err := r.references(e, ref, parentID)
			if err != nil {
				return err
			}
			if !match || !e.IsActive() {
				continue
			}
			c := r.rows.clone(e)
			if err := setColumns(c, fields); err != nil {
				return fmt.Errorf("update %s: %w", r.entityName, err)
			}
			c.SetVersion(c.GetVersion() + 1)
			touch(c)
			r.rows.put(rowID, c)
			n++
		}
		return nil
	})
	return n, err
}

func (r *CatalogRepo[T]) references(e T, ref string, parentID id.ID) (bool, error) {
	v, ok := column(e, ref)
	if !ok {
		return false, fmt.Errorf("%s has no column %q", r.entityName, ref)
	}
	switch fk := v.(type) {
	case id.ID:
		return fk == parentID, nil
	case *id.ID:
		return fk != nil && *fk == parentID, nil
	}
	return false, fmt.Errorf("%s column %q is not a reference", r.entityName, ref)
}

// checkActiveKey mirrors the partial unique index on active natural keys.
// Callers hold the store lock.
func (r *CatalogRepo[T]) checkActiveKey(e T) error {
	if !e.IsActive() {
		return nil
	}
	for otherID, other := range r.rows.rows {
		if otherID != e.GetID() && other.IsActive() && other.NaturalKey() == e.NaturalKey() {
			return apperror.NewDuplicateActive(r.entityName, e.NaturalKey(), nil)
		}
	}
	return nil
}

func (r *CatalogRepo[T]) sort(rows []T, orderBy string) {
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimPrefix(orderBy, "-")

	cmp := func(a, b T) int {
		switch field {
		case "created_at", "id":
			return compareIDs(a.GetID(), b.GetID())
		default:
			if c := strings.Compare(strings.ToLower(r.display(a)), strings.ToLower(r.display(b))); c != 0 {
				return c
			}
			return compareIDs(a.GetID(), b.GetID())
		}
	}
	slices.SortFunc(rows, func(a, b T) int {
		if desc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
}

// compareIDs orders UUIDv7 values, which sort by creation time.
func compareIDs(a, b id.ID) int {
	return bytes.Compare(a[:], b[:])
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return make([]T, 0)
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func touch(e any) {
	if t, ok := e.(interface{ Touch() }); ok {
		t.Touch()
	}
}
