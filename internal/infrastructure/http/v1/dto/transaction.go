package dto

import (
	"time"

	"farmstock/internal/core/apperror"
	"farmstock/internal/core/id"
	"farmstock/internal/core/types"
	"farmstock/internal/domain/reconcile"
	"farmstock/internal/domain/resource"
	"farmstock/internal/domain/transaction"
)

// --- Transaction DTOs ---

// CreateTransactionRequest records a financial transaction. Stock fields are
// required only when the category implies a stock movement.
type CreateTransactionRequest struct {
	Type           string            `json:"type" binding:"required"`
	Category       string            `json:"category" binding:"required"`
	Amount         string            `json:"amount" binding:"required"`
	Date           time.Time         `json:"date" binding:"required"`
	CounterpartyID *string           `json:"counterpartyId"`
	Description    string            `json:"description"`
	ResourceType   string            `json:"resourceType"`
	Attributes     map[string]string `json:"attributes"`
	Quantity       int64             `json:"quantity"`
}

// ToDraft converts the request into a reconciliation draft.
func (r *CreateTransactionRequest) ToDraft() (reconcile.TransactionDraft, error) {
	var draft reconcile.TransactionDraft

	amount, err := types.NewMoneyFromString(r.Amount)
	if err != nil {
		return draft, apperror.NewValidation("invalid amount").
			WithDetail("field", "amount").
			WithDetail("value", r.Amount)
	}

	draft = reconcile.TransactionDraft{
		Type:        transaction.Type(r.Type),
		Category:    transaction.Category(r.Category),
		Amount:      amount,
		Date:        r.Date,
		Description: r.Description,
		Quantity:    r.Quantity,
	}

	if r.CounterpartyID != nil && *r.CounterpartyID != "" {
		cpID, err := id.Parse(*r.CounterpartyID)
		if err != nil {
			return draft, apperror.NewValidation("invalid counterparty id").
				WithDetail("field", "counterpartyId").
				WithDetail("value", *r.CounterpartyID)
		}
		draft.CounterpartyID = &cpID
	}

	if r.ResourceType != "" {
		t, err := resource.ParseType(r.ResourceType)
		if err != nil {
			return draft, err
		}
		draft.ResourceType = t
		draft.Attributes = resource.Attributes(r.Attributes)
	}

	return draft, nil
}

// TransactionResponse is the wire form of a transaction record.
type TransactionResponse struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	Category       string            `json:"category"`
	Amount         string            `json:"amount"`
	Date           time.Time         `json:"date"`
	CounterpartyID *string           `json:"counterpartyId,omitempty"`
	Description    string            `json:"description,omitempty"`
	ResourceType   *string           `json:"resourceType,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	Quantity       *int64            `json:"quantity,omitempty"`
	LinkedLotID    *string           `json:"linkedLotId,omitempty"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// FromTransaction creates TransactionResponse from a domain record.
func FromTransaction(t *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID.String(),
		Type:        string(t.Type),
		Category:    string(t.Category),
		Amount:      t.Amount.String(),
		Date:        t.Date,
		Description: t.Description,
		Attributes:  t.Attributes,
		Quantity:    t.Quantity,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
	if t.CounterpartyID != nil {
		s := t.CounterpartyID.String()
		resp.CounterpartyID = &s
	}
	if t.ResourceType != nil {
		s := string(*t.ResourceType)
		resp.ResourceType = &s
	}
	if t.LinkedLotID != nil {
		s := t.LinkedLotID.String()
		resp.LinkedLotID = &s
	}
	return resp
}

// FromTransactions maps a slice of domain records.
func FromTransactions(txs []*transaction.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, FromTransaction(t))
	}
	return out
}

// ListTransactionsRequest filters transaction listings.
type ListTransactionsRequest struct {
	Type     string     `form:"type"`
	Category string     `form:"category"`
	FromDate *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"toDate" time_format:"2006-01-02"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}

// ToFilter converts the request into a repository filter.
func (r *ListTransactionsRequest) ToFilter() transaction.ListFilter {
	filter := transaction.ListFilter{
		FromDate: r.FromDate,
		ToDate:   r.ToDate,
		Limit:    r.Limit,
		Offset:   r.Offset,
	}
	if r.Type != "" {
		t := transaction.Type(r.Type)
		filter.Type = &t
	}
	if r.Category != "" {
		c := transaction.Category(r.Category)
		filter.Category = &c
	}
	return filter
}
