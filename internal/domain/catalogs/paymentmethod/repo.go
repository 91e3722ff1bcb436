package paymentmethod

import (
	"barpos/internal/domain"
)

// Repository defines the interface for PaymentMethod persistence.
// It also serves as the dependents side of Account deactivation.
type Repository interface {
	domain.CatalogRepository[*PaymentMethod]
	domain.DependentsRepository
}
