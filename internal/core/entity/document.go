package entity

import (
	"context"
	"time"

	"comptoir/internal/core/apperror"
)

// Document is the base type for business transactions
// (sales, purchase orders, invoices).
type Document struct {
	BaseEntity

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(now time.Time) Document {
	return Document{
		BaseEntity: NewBaseEntity(now),
		Date:       now,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}
