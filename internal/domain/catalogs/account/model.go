// Package account provides the Account catalog: the money buckets
// (cash drawer, bank, card terminal) that ledger transactions post to.
package account

import (
	"barpos/internal/core/entity"
)

// Account is a name-keyed reference row owning payment methods.
type Account struct {
	entity.Catalog

	Description *string `db:"description" json:"description,omitempty"`
}

// NewAccount creates a new active Account.
func NewAccount(name string) *Account {
	return &Account{Catalog: entity.NewCatalog(name)}
}

// Patch is a partial update of an Account.
type Patch struct {
	entity.CatalogPatch
	Description *string `json:"description,omitempty"`
}

// Apply implements domain.Patch.
func (p Patch) Apply(e *Account) {
	p.ApplyTo(&e.Catalog)
	if p.Description != nil {
		e.Description = p.Description
	}
}
