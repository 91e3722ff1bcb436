package sale

import (
	"context"
	"time"

	"barpos/internal/core/id"
	"barpos/internal/domain"
	"barpos/internal/domain/catalogs/bartable"
	"barpos/internal/domain/catalogs/employee"
	"barpos/internal/domain/catalogs/paymentmethod"
	"barpos/internal/domain/catalogs/product"
	"barpos/internal/domain/registers/ledger"
)

// Repository defines operations for sales.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	FindByID(ctx context.Context, id id.ID) (*Sale, error)
	UpdateFields(ctx context.Context, id id.ID, fields domain.Fields) error
	// Delete removes the sale and its lines
	Delete(ctx context.Context, id id.ID) error

	// GetForUpdate retrieves the header with a row lock
	GetForUpdate(ctx context.Context, id id.ID) (*Sale, error)

	GetLines(ctx context.Context, saleID id.ID) ([]Line, error)
	// SaveLines replaces every line of the sale
	SaveLines(ctx context.Context, saleID id.ID, lines []Line) error

	// FindOpenByOwner returns the id of the owner's open sale, or nil
	FindOpenByOwner(ctx context.Context, ref string, ownerID id.ID) (*id.ID, error)

	// CountActiveDependents counts open sales for an owner (ref is bartable_id or employee_id)
	CountActiveDependents(ctx context.Context, ref string, ownerID id.ID) (int, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}

// ListFilter for filtering sales.
type ListFilter struct {
	Open       *bool
	BartableID *id.ID
	EmployeeID *id.ID
	// DateFrom inclusive, DateTo exclusive
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// Matches reports whether s passes the filter (used by the in-memory store).
func (f ListFilter) Matches(s *Sale) bool {
	if f.Open != nil && s.Open != *f.Open {
		return false
	}
	if f.BartableID != nil && !id.EqualPtr(s.BartableID, f.BartableID) {
		return false
	}
	if f.EmployeeID != nil && !id.EqualPtr(s.EmployeeID, f.EmployeeID) {
		return false
	}
	if f.DateFrom != nil && s.DateTime.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && !s.DateTime.Before(*f.DateTo) {
		return false
	}
	return true
}

// --- Lookup ports ---

// BartableLookup resolves sale owners of kind bartable.
type BartableLookup interface {
	FindActiveByID(ctx context.Context, id id.ID) (*bartable.Bartable, error)
}

// EmployeeLookup resolves sale owners of kind employee.
type EmployeeLookup interface {
	FindActiveByID(ctx context.Context, id id.ID) (*employee.Employee, error)
}

// ProductLookup resolves products added to a sale.
type ProductLookup interface {
	FindActiveByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// PaymentMethodLookup resolves the payment method a sale closes with.
type PaymentMethodLookup interface {
	FindActiveByID(ctx context.Context, id id.ID) (*paymentmethod.PaymentMethod, error)
}

// TransactionRecorder is the part of the ledger the sale flow writes to.
type TransactionRecorder interface {
	CreateEntry(ctx context.Context, entry ledger.Entry) (*ledger.Transaction, error)
	DetachSale(ctx context.Context, saleID id.ID) (int, error)
}
