package product

import (
	"barpos/internal/domain"
)

// Repository defines the interface for Product persistence.
// It is the dependents side of Brand, Category and Provider deactivation.
type Repository interface {
	domain.CatalogRepository[*Product]
	domain.DependentsRepository
}
