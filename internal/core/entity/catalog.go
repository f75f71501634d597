package entity

import (
	"context"
	"time"

	"comptoir/internal/core/apperror"
)

// Catalog is the base type for reference data (products, warehouses).
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier (unique)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string, now time.Time) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(now),
		Code:       code,
		Name:       name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	// Code can be auto-generated, so it's optional at creation
	return nil
}
