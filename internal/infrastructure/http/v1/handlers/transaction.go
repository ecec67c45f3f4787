package handlers

import (
	"github.com/gin-gonic/gin"

	"farmstock/internal/domain/reconcile"
	"farmstock/internal/domain/transaction"
	"farmstock/internal/infrastructure/http/v1/dto"
)

// TransactionHandler serves transaction recording and retrieval.
type TransactionHandler struct {
	*BaseHandler
	coordinator *reconcile.Coordinator
	service     *transaction.Service
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(base *BaseHandler, coordinator *reconcile.Coordinator, service *transaction.Service) *TransactionHandler {
	return &TransactionHandler{BaseHandler: base, coordinator: coordinator, service: service}
}

// Create records a financial transaction, reconciling stock when the
// category implies a movement.
// POST /api/v1/transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	draft, err := req.ToDraft()
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.coordinator.RecordTransaction(c.Request.Context(), draft)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromTransaction(rec))
}

// Get returns a transaction by id.
// GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), txID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransaction(rec))
}

// List returns transactions, newest first.
// GET /api/v1/transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var req dto.ListTransactionsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	txs, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromTransactions(txs),
		TotalCount: int64(len(txs)),
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
}
