package brand

import (
	"barpos/internal/domain"
)

// Repository defines the interface for Brand persistence.
type Repository interface {
	domain.CatalogRepository[*Brand]
}
