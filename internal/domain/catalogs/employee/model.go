// Package employee provides the Employee catalog. Employees may own a sale
// (staff consumption) and get the staff discount on it.
package employee

import (
	"context"

	"barpos/internal/core/apperror"
	"barpos/internal/core/entity"
)

// Role is the job of an employee.
type Role string

const (
	RoleWaiter    Role = "waiter"
	RoleBartender Role = "bartender"
	RoleManager   Role = "manager"
)

// Employee is a name-keyed reference row.
type Employee struct {
	entity.Catalog

	Role Role `db:"role" json:"role"`
}

// NewEmployee creates a new active Employee.
func NewEmployee(name string, role Role) *Employee {
	return &Employee{
		Catalog: entity.NewCatalog(name),
		Role:    role,
	}
}

// Validate implements entity.Validatable interface.
func (e *Employee) Validate(ctx context.Context) error {
	if err := e.Catalog.Validate(ctx); err != nil {
		return err
	}
	switch e.Role {
	case RoleWaiter, RoleBartender, RoleManager:
		return nil
	}
	return apperror.NewValidation("invalid employee role").
		WithDetail("field", "role").
		WithDetail("value", string(e.Role))
}

// Patch is a partial update of an Employee.
type Patch struct {
	entity.CatalogPatch
	Role *Role `json:"role,omitempty"`
}

// Apply implements domain.Patch.
func (p Patch) Apply(e *Employee) {
	p.ApplyTo(&e.Catalog)
	if p.Role != nil {
		e.Role = *p.Role
	}
}
