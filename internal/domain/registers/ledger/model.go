// Package ledger provides the financial transaction register.
// Entries produced by a sale close are append-only.
package ledger

import (
	"context"
	"time"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/types"
)

// Type is the direction of money.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Origin tells which flow produced an entry.
type Origin string

const (
	OriginSale     Origin = "sale"
	OriginMovement Origin = "movement"
)

// Transaction is one ledger entry posted to an account.
type Transaction struct {
	ID          id.ID       `db:"id" json:"id"`
	AccountID   id.ID       `db:"account_id" json:"accountId"`
	Type        Type        `db:"type" json:"type"`
	Origin      Origin      `db:"origin" json:"origin"`
	Amount      types.Money `db:"amount" json:"amount"`
	SaleID      *id.ID      `db:"sale_id" json:"saleId,omitempty"`
	Description string      `db:"description" json:"description"`
	DateTime    time.Time   `db:"date_time" json:"dateTime"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// Entry is the input of Recorder.CreateEntry.
type Entry struct {
	AccountID   id.ID
	Type        Type
	Origin      Origin
	Amount      types.Money
	SaleID      *id.ID
	Description string
	// DateTime defaults to now
	DateTime time.Time
}

// Validate checks entry invariants (without database access).
func (e Entry) Validate(ctx context.Context) error {
	if id.IsNil(e.AccountID) {
		return apperror.NewValidation("account is required").WithDetail("field", "accountId")
	}
	if !validType(e.Type) {
		return apperror.NewValidation("invalid transaction type").
			WithDetail("field", "type").
			WithDetail("value", string(e.Type))
	}
	switch e.Origin {
	case OriginSale:
		if id.IsNilPtr(e.SaleID) {
			return apperror.NewValidation("sale entries must reference a sale").WithDetail("field", "saleId")
		}
	case OriginMovement:
	default:
		return apperror.NewValidation("invalid transaction origin").
			WithDetail("field", "origin").
			WithDetail("value", string(e.Origin))
	}
	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}
	return nil
}

// Patch is a partial update of a movement entry.
type Patch struct {
	AccountID   *id.ID       `json:"accountId,omitempty"`
	Type        *Type        `json:"type,omitempty"`
	Amount      *types.Money `json:"amount,omitempty"`
	Description *string      `json:"description,omitempty"`
	DateTime    *time.Time   `json:"dateTime,omitempty"`
}

// Apply copies the set fields onto t.
func (p Patch) Apply(t *Transaction) {
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DateTime != nil {
		t.DateTime = p.DateTime.UTC()
	}
}

func validType(t Type) bool {
	return t == TypeIncome || t == TypeExpense
}

// OriginFilter selects entries by origin.
type OriginFilter string

const (
	OriginAll          OriginFilter = "all"
	OriginOnlySale     OriginFilter = "sale"
	OriginOnlyMovement OriginFilter = "movement"
)

// Filter selects ledger entries. Start and End are calendar days, both inclusive.
type Filter struct {
	Start     *time.Time
	End       *time.Time
	Origin    OriginFilter
	AccountID *id.ID
	Limit     int
	Offset    int
}

// Query is a Filter resolved to a half-open instant range.
type Query struct {
	From      *time.Time // inclusive
	Until     *time.Time // exclusive
	Origin    *Origin
	AccountID *id.ID
	Limit     int
	Offset    int
}

// Resolve turns calendar days into [start 00:00:00, day after end 00:00:00),
// which covers end up to 23:59:59.999999.
func (f Filter) Resolve() (Query, error) {
	q := Query{AccountID: f.AccountID, Limit: f.Limit, Offset: f.Offset}

	switch f.Origin {
	case "", OriginAll:
	case OriginOnlySale:
		o := OriginSale
		q.Origin = &o
	case OriginOnlyMovement:
		o := OriginMovement
		q.Origin = &o
	default:
		return q, apperror.NewValidation("invalid origin filter").
			WithDetail("field", "origin").
			WithDetail("value", string(f.Origin))
	}

	if f.Start != nil {
		from := startOfDay(*f.Start)
		q.From = &from
	}
	if f.End != nil {
		until := startOfDay(*f.End).AddDate(0, 0, 1)
		q.Until = &until
	}
	if q.From != nil && q.Until != nil && !q.From.Before(*q.Until) {
		return q, apperror.NewValidation("start must not be after end")
	}
	return q, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Matches reports whether t falls inside q (used by the in-memory store).
func (q Query) Matches(t *Transaction) bool {
	if q.From != nil && t.DateTime.Before(*q.From) {
		return false
	}
	if q.Until != nil && !t.DateTime.Before(*q.Until) {
		return false
	}
	if q.Origin != nil && t.Origin != *q.Origin {
		return false
	}
	if q.AccountID != nil && t.AccountID != *q.AccountID {
		return false
	}
	return true
}

// Summary aggregates a filtered set of entries.
type Summary struct {
	Income  types.Money `json:"income"`
	Expense types.Money `json:"expense"`
	Net     types.Money `json:"net"`
	Count   int         `json:"count"`
}
