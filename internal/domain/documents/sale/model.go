// Package sale provides the sale ledger: an order opened on a table or for an
// employee, mutated line by line while open and closed exactly once.
package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/types"
)

// OwnerKind names the two kinds of sale owner.
type OwnerKind string

const (
	OwnerBartable OwnerKind = "bartable"
	OwnerEmployee OwnerKind = "employee"
)

// Owner identifies who a sale is opened for. Exactly one field must be set.
type Owner struct {
	BartableID *id.ID `json:"bartableId,omitempty"`
	EmployeeID *id.ID `json:"employeeId,omitempty"`
}

// Resolve returns the owner kind and id, or VALIDATION unless exactly one is set.
func (o Owner) Resolve() (OwnerKind, id.ID, error) {
	hasTable, hasEmployee := !id.IsNilPtr(o.BartableID), !id.IsNilPtr(o.EmployeeID)
	switch {
	case hasTable && !hasEmployee:
		return OwnerBartable, *o.BartableID, nil
	case hasEmployee && !hasTable:
		return OwnerEmployee, *o.EmployeeID, nil
	}
	return "", id.Nil(), apperror.NewValidation("exactly one of bartableId or employeeId is required")
}

// Sale is the order header. Lines are loaded separately.
type Sale struct {
	ID       id.ID     `db:"id" json:"id"`
	Number   string    `db:"number" json:"number"`
	DateTime time.Time `db:"date_time" json:"dateTime"`

	// Total always equals the sum of line subtotals
	Total types.Money `db:"total" json:"total"`

	Open bool `db:"open" json:"open"`

	BartableID *id.ID `db:"bartable_id" json:"bartableId,omitempty"`
	EmployeeID *id.ID `db:"employee_id" json:"employeeId,omitempty"`

	// DiscountRate is fixed at creation by owner kind
	DiscountRate decimal.Decimal `db:"discount_rate" json:"discountRate"`

	PaymentMethodID *id.ID     `db:"payment_method_id" json:"paymentMethodId,omitempty"`
	ClosedAt        *time.Time `db:"closed_at" json:"closedAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one product on a sale. Subtotal = Quantity × UnitPrice.
type Line struct {
	SaleID    id.ID `db:"sale_id" json:"-"`
	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int   `db:"quantity" json:"quantity"`

	// UnitPrice is the discounted price frozen when the line was first added
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	Subtotal  types.Money `db:"subtotal" json:"subtotal"`
}

// NewSale creates an open sale for owner. number may be empty until assigned.
func NewSale(kind OwnerKind, ownerID id.ID, number string) *Sale {
	now := time.Now().UTC()
	s := &Sale{
		ID:           id.New(),
		Number:       number,
		DateTime:     now,
		Total:        types.Zero(),
		Open:         true,
		DiscountRate: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
		Lines:        make([]Line, 0),
	}
	switch kind {
	case OwnerBartable:
		s.BartableID = id.Ptr(ownerID)
	case OwnerEmployee:
		s.EmployeeID = id.Ptr(ownerID)
		s.DiscountRate = EmployeeDiscountRate
	}
	return s
}

// OwnerKind reports which owner reference is set.
func (s *Sale) OwnerKind() OwnerKind {
	if s.EmployeeID != nil {
		return OwnerEmployee
	}
	return OwnerBartable
}

// CanModify returns SALE_CLOSED once the sale is closed.
func (s *Sale) CanModify() error {
	if !s.Open {
		return apperror.NewSaleClosed(s.ID.String())
	}
	return nil
}

// Validate checks header invariants.
func (s *Sale) Validate(ctx context.Context) error {
	if _, _, err := (Owner{BartableID: s.BartableID, EmployeeID: s.EmployeeID}).Resolve(); err != nil {
		return err
	}
	if !s.Open && id.IsNilPtr(s.PaymentMethodID) {
		return apperror.NewUnpaidClose(s.ID.String())
	}
	return nil
}

// UnitPrice returns price with the sale discount applied.
func (s *Sale) UnitPrice(price types.Money) types.Money {
	return types.ApplyDiscount(price, s.DiscountRate)
}

// AddLine increments the line of productID, creating it at unitPrice if absent.
func (s *Sale) AddLine(productID id.ID, unitPrice types.Money) {
	for i := range s.Lines {
		if s.Lines[i].ProductID == productID {
			s.Lines[i].Quantity++
			s.Lines[i].recalculate()
			return
		}
	}
	s.Lines = append(s.Lines, Line{
		SaleID:    s.ID,
		ProductID: productID,
		Quantity:  1,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice,
	})
}

// RemoveLine decrements the line of productID and drops it at zero.
// A product with no line is NOT_FOUND.
func (s *Sale) RemoveLine(productID id.ID) error {
	for i := range s.Lines {
		if s.Lines[i].ProductID != productID {
			continue
		}
		s.Lines[i].Quantity--
		if s.Lines[i].Quantity <= 0 {
			s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
			return nil
		}
		s.Lines[i].recalculate()
		return nil
	}
	return apperror.NewNotFound("sale line", productID.String()).
		WithDetail("saleId", s.ID.String())
}

// RecalculateTotal folds the line subtotals into Total.
func (s *Sale) RecalculateTotal() {
	subtotals := make([]types.Money, len(s.Lines))
	for i, l := range s.Lines {
		subtotals[i] = l.Subtotal
	}
	s.Total = types.Sum(subtotals...)
}

func (l *Line) recalculate() {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
