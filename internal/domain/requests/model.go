// Package requests implements the replenishment request workflow: a
// draft listing products to restock, sent for processing and then
// processed, rejected or cancelled. Requests never move stock; they
// feed purchase ordering.
package requests

import (
	"context"
	"time"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
)

// Priority is the urgency of a replenishment request.
type Priority string

const (
	PriorityNormal   Priority = "Normal"
	PriorityUrgent   Priority = "Urgent"
	PriorityCritical Priority = "Critical"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityUrgent, PriorityCritical:
		return true
	}
	return false
}

// Status is the replenishment request state.
type Status string

const (
	StatusDraft      Status = "Draft"
	StatusSent       Status = "Sent"
	StatusInProgress Status = "InProgress"
	StatusProcessed  Status = "Processed"
	StatusRejected   Status = "Rejected"
	StatusCancelled  Status = "Cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:      {StatusSent, StatusCancelled},
	StatusSent:       {StatusInProgress, StatusProcessed, StatusRejected, StatusCancelled},
	StatusInProgress: {StatusProcessed, StatusRejected, StatusCancelled},
}

// CanTransition reports whether moving from s to target is legal.
func (s Status) CanTransition(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Line is one product to restock. Stock level and reorder threshold
// are snapshots taken when the request was drafted, so the processor
// sees the situation the requester saw.
type Line struct {
	ID                id.ID  `json:"id" db:"id"`
	RequestID         id.ID  `json:"requestId" db:"request_id"`
	ProductID         id.ID  `json:"productId" db:"product_id"`
	QuantityRequested int64  `json:"quantityRequested" db:"quantity_requested"`
	QuantityOnHand    int64  `json:"quantityOnHand" db:"quantity_on_hand"`
	ReorderThreshold  int64  `json:"reorderThreshold" db:"reorder_threshold"`
	Justification     string `json:"justification,omitempty" db:"justification"`
}

// Request asks for stock to be replenished.
type Request struct {
	entity.Document

	Reason   string   `json:"reason,omitempty" db:"reason"`
	Priority Priority `json:"priority" db:"priority"`
	Status   Status   `json:"status" db:"status"`

	// ProcessedAt and ProcessingNote are set when the request reaches
	// Processed or Rejected.
	ProcessedAt    *time.Time `json:"processedAt,omitempty" db:"processed_at"`
	ProcessingNote string     `json:"processingNote,omitempty" db:"processing_note"`

	Lines []*Line `json:"lines" db:"-"`
}

// Validate implements entity.Validatable.
func (r *Request) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if !r.Priority.IsValid() {
		return apperror.NewValidation("invalid priority").
			WithDetail("value", string(r.Priority))
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("replenishment request requires at least one line")
	}
	for i, ln := range r.Lines {
		if ln.QuantityRequested <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("line", i)
		}
	}
	return nil
}
