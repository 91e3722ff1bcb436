package account

import (
	"barpos/internal/domain"
)

// Repository defines the interface for Account persistence.
type Repository interface {
	domain.CatalogRepository[*Account]
}
