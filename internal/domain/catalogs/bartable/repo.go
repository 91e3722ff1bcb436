package bartable

import (
	"barpos/internal/domain"
)

// Repository defines the interface for Bartable persistence.
type Repository interface {
	domain.CatalogRepository[*Bartable]
}
