package memory

import (
	"context"
	"fmt"
	"slices"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/domain"
	"barpos/internal/domain/documents/sale"
)

// SaleRepo is the in-memory implementation of sale.Repository.
type SaleRepo struct {
	store *Store
	sales *table[id.ID, *sale.Sale]
	lines *table[id.ID, []sale.Line]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(s *Store) *SaleRepo {
	return &SaleRepo{
		store: s,
		sales: newTable[id.ID, *sale.Sale](s, func(v *sale.Sale) *sale.Sale {
			c := clonePtr(v)
			c.Lines = nil
			return c
		}),
		lines: newTable[id.ID, []sale.Line](s, cloneSlice[sale.Line]),
	}
}

// Create implements sale.Repository. At most one open sale per owner, as the
// partial unique indexes enforce in PostgreSQL.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	return r.store.do(ctx, func() error {
		if _, ok := r.sales.rows[s.ID]; ok {
			return fmt.Errorf("insert sale: duplicate id %s", s.ID)
		}
		if s.Open {
			for _, other := range r.sales.rows {
				if !other.Open {
					continue
				}
				if !id.IsNilPtr(s.BartableID) && id.EqualPtr(other.BartableID, s.BartableID) {
					return apperror.NewSaleAlreadyOpen(string(sale.OwnerBartable), s.BartableID.String(), nil)
				}
				if !id.IsNilPtr(s.EmployeeID) && id.EqualPtr(other.EmployeeID, s.EmployeeID) {
					return apperror.NewSaleAlreadyOpen(string(sale.OwnerEmployee), s.EmployeeID.String(), nil)
				}
			}
		}
		r.sales.put(s.ID, s)
		return nil
	})
}

// FindByID implements sale.Repository.
func (r *SaleRepo) FindByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	var out *sale.Sale
	err := r.store.do(ctx, func() error {
		s, ok := r.sales.get(saleID)
		if !ok {
			return apperror.NewNotFound("sale", saleID.String())
		}
		out = s
		return nil
	})
	return out, err
}

// GetForUpdate implements sale.Repository. The store lock already serializes writers.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.FindByID(ctx, saleID)
}

// UpdateFields implements sale.Repository.
func (r *SaleRepo) UpdateFields(ctx context.Context, saleID id.ID, fields domain.Fields) error {
	return r.store.do(ctx, func() error {
		s, ok := r.sales.get(saleID)
		if !ok {
			return apperror.NewNotFound("sale", saleID.String())
		}
		if err := setColumns(s, fields); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		r.sales.put(saleID, s)
		return nil
	})
}

// Delete implements sale.Repository.
func (r *SaleRepo) Delete(ctx context.Context, saleID id.ID) error {
	return r.store.do(ctx, func() error {
		if _, ok := r.sales.rows[saleID]; !ok {
			return apperror.NewNotFound("sale", saleID.String())
		}
		r.sales.delete(saleID)
		r.lines.delete(saleID)
		return nil
	})
}

// GetLines implements sale.Repository.
func (r *SaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	var out []sale.Line
	err := r.store.do(ctx, func() error {
		lines, _ := r.lines.get(saleID)
		out = lines
		return nil
	})
	if out == nil {
		out = make([]sale.Line, 0)
	}
	return out, err
}

// SaveLines implements sale.Repository.
func (r *SaleRepo) SaveLines(ctx context.Context, saleID id.ID, lines []sale.Line) error {
	return r.store.do(ctx, func() error {
		if _, ok := r.sales.rows[saleID]; !ok {
			return apperror.NewNotFound("sale", saleID.String())
		}
		if len(lines) == 0 {
			r.lines.delete(saleID)
			return nil
		}
		stored := make([]sale.Line, len(lines))
		for i, l := range lines {
			l.SaleID = saleID
			stored[i] = l
		}
		r.lines.put(saleID, stored)
		return nil
	})
}

// FindOpenByOwner implements sale.Repository.
func (r *SaleRepo) FindOpenByOwner(ctx context.Context, ref string, ownerID id.ID) (*id.ID, error) {
	var out *id.ID
	err := r.store.do(ctx, func() error {
		for _, s := range r.sales.rows {
			match, err := ownedBy(s, ref, ownerID)
			if err != nil {
				return err
			}
			if match && s.Open {
				out = id.Ptr(s.ID)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// CountActiveDependents implements domain.DependentsCounter: open sales of an owner.
func (r *SaleRepo) CountActiveDependents(ctx context.Context, ref string, ownerID id.ID) (int, error) {
	n := 0
	err := r.store.do(ctx, func() error {
		for _, s := range r.sales.rows {
			match, err := ownedBy(s, ref, ownerID)
			if err != nil {
				return err
			}
			if match && s.Open {
				n++
			}
		}
		return nil
	})
	return n, err
}

// List implements sale.Repository. Newest first.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	res := domain.ListResult[*sale.Sale]{Items: make([]*sale.Sale, 0), Limit: filter.Limit, Offset: filter.Offset}
	err := r.store.do(ctx, func() error {
		var matched []*sale.Sale
		for _, s := range r.sales.rows {
			if filter.Matches(s) {
				matched = append(matched, r.sales.clone(s))
			}
		}
		slices.SortFunc(matched, func(a, b *sale.Sale) int {
			if c := b.DateTime.Compare(a.DateTime); c != 0 {
				return c
			}
			return compareIDs(b.ID, a.ID)
		})
		res.TotalCount = int64(len(matched))
		res.Items = paginate(matched, filter.Limit, filter.Offset)
		return nil
	})
	return res, err
}

func ownedBy(s *sale.Sale, ref string, ownerID id.ID) (bool, error) {
	v, ok := column(s, ref)
	if !ok {
		return false, fmt.Errorf("sale has no column %q", ref)
	}
	fk, _ := v.(*id.ID)
	return fk != nil && *fk == ownerID, nil
}

var _ sale.Repository = (*SaleRepo)(nil)
