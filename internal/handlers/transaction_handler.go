package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investment-platform/internal/models"
	"investment-platform/internal/services"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
	adminService       *services.AdminService
}

func NewTransactionHandler(transactions *services.TransactionService, admin *services.AdminService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactions, adminService: admin}
}

type walletRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=255"`
}

// Deposit records a wallet deposit request
// POST /api/transactions/deposit
func (h *TransactionHandler) Deposit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !requirePositive(c, "amount", req.Amount) {
		return
	}

	txn, err := h.transactionService.RequestDeposit(c.Request.Context(), userID, req.Amount, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, txn)
}

// Withdraw records a pending wallet withdrawal
// POST /api/transactions/withdraw
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !requirePositive(c, "amount", req.Amount) {
		return
	}

	txn, err := h.transactionService.RequestWithdrawal(c.Request.Context(), userID, req.Amount, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, txn)
}

// GetMyTransactions lists the caller's transactions
// GET /api/transactions
func (h *TransactionHandler) GetMyTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page := pagination(c)
	txns, total, err := h.transactionService.List(c.Request.Context(), services.TransactionFilter{
		UserID: &userID,
		Type:   models.TransactionType(c.Query("type")),
		Status: models.TransactionStatus(c.Query("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, txns, total, page)
}

// GetMySummary totals the caller's completed transactions per type
// GET /api/transactions/summary
func (h *TransactionHandler) GetMySummary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.transactionService.Summary(c.Request.Context(), &userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

// GetTransaction returns one of the caller's transactions
// GET /api/transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	txn, err := h.transactionService.GetForUser(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, txn)
}

// CancelTransaction cancels one of the caller's pending requests
// POST /api/transactions/:id/cancel
func (h *TransactionHandler) CancelTransaction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	txn, err := h.transactionService.CancelPending(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "transaction cancelled", txn)
}

// ListTransactions lists every transaction for the back office
// GET /api/admin/transactions
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	page := pagination(c)
	txns, total, err := h.transactionService.List(c.Request.Context(), services.TransactionFilter{
		UserID: userID,
		Type:   models.TransactionType(c.Query("type")),
		Status: models.TransactionStatus(c.Query("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, txns, total, page)
}

// GetSummary totals completed transactions platform-wide
// GET /api/admin/transactions/summary
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	summary, err := h.transactionService.Summary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

// CreateTransaction lets an admin record a transaction for any user
// POST /api/admin/transactions
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req struct {
		UserID      uint                     `json:"user_id" binding:"required"`
		Type        models.TransactionType   `json:"type" binding:"required"`
		Amount      decimal.Decimal          `json:"amount"`
		Status      models.TransactionStatus `json:"status"`
		Reference   string                   `json:"reference" binding:"max=64"`
		Description string                   `json:"description" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	txn, err := h.transactionService.Create(c.Request.Context(), services.CreateTransactionParams{
		UserID:      req.UserID,
		Type:        req.Type,
		Amount:      req.Amount,
		Status:      req.Status,
		Reference:   req.Reference,
		Description: req.Description,
		CreatedBy:   &a.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "CREATE_TRANSACTION", "TRANSACTION", &txn.ID, map[string]interface{}{
		"user_id": txn.UserID,
		"type":    txn.Type,
		"amount":  txn.Amount.String(),
		"status":  txn.Status,
	})
	respond(c, http.StatusCreated, txn)
}

// UpdateTransactionStatus moves a transaction to a new status
// PUT /api/admin/transactions/:id/status
func (h *TransactionHandler) UpdateTransactionStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.TransactionStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	txn, err := h.transactionService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "UPDATE_TRANSACTION_STATUS", "TRANSACTION", &id, map[string]interface{}{
		"status": txn.Status,
	})
	respond(c, http.StatusOK, txn)
}
