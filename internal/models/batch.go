package models

import "github.com/shopspring/decimal"

// BatchItemStatus classifies one item's outcome in a bulk operation.
type BatchItemStatus string

const (
	BatchItemSuccess BatchItemStatus = "success"
	BatchItemFailed  BatchItemStatus = "failed"
)

// BatchItem is the per-item outcome of a bulk operation. Failures carry the
// error code so callers can distinguish preconditions from validation.
type BatchItem struct {
	ID        string           `json:"id"`
	Status    BatchItemStatus  `json:"status"`
	ErrorCode string           `json:"errorCode,omitempty"`
	Message   string           `json:"message,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

// BatchResult aggregates a bulk operation. Partial failure is expected and
// surfaced, never hidden: the whole batch never fails because one item did.
type BatchResult struct {
	BatchID     string           `json:"batchId,omitempty"`
	Processed   int              `json:"processed"`
	Failed      int              `json:"failed"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	Items       []BatchItem      `json:"items"`
}

// Append records one outcome and maintains the aggregate counters.
func (r *BatchResult) Append(item BatchItem) {
	r.Items = append(r.Items, item)
	if item.Status == BatchItemSuccess {
		r.Processed++
	} else {
		r.Failed++
	}
}
