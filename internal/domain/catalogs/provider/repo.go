package provider

import (
	"barpos/internal/domain"
)

// Repository defines the interface for Provider persistence.
type Repository interface {
	domain.CatalogRepository[*Provider]
}
