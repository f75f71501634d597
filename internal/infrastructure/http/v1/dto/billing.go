package dto

import "time"

// RecordPaymentRequest is the payload for recording a payment. An
// absent date defaults to the server time.
type RecordPaymentRequest struct {
	Amount    string     `json:"amount" binding:"required"`
	Date      *time.Time `json:"date"`
	Method    string     `json:"method" binding:"required"`
	Reference string     `json:"reference"`
}
