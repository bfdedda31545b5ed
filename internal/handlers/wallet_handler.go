package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investment-platform/internal/models"
	"investment-platform/internal/services"
)

type WalletHandler struct {
	walletService *services.WalletService
	adminService  *services.AdminService
}

func NewWalletHandler(wallet *services.WalletService, admin *services.AdminService) *WalletHandler {
	return &WalletHandler{walletService: wallet, adminService: admin}
}

// ListAssets returns the supported crypto assets
// GET /api/wallet/assets
func (h *WalletHandler) ListAssets(c *gin.Context) {
	assets, err := h.walletService.ListAssets(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, assets)
}

// GetBalances returns the caller's crypto balances
// GET /api/wallet/balances
func (h *WalletHandler) GetBalances(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	balances, err := h.walletService.Balances(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, balances)
}

// GetDepositAddress returns (creating on first use) the caller's address for an asset
// GET /api/wallet/assets/:id/address
func (h *WalletHandler) GetDepositAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	assetID, ok := paramID(c, "id")
	if !ok {
		return
	}

	address, err := h.walletService.DepositAddress(c.Request.Context(), userID, assetID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, address)
}

// GetOnchainBalance reads the native balance of the caller's deposit address
// GET /api/wallet/assets/:id/onchain-balance
func (h *WalletHandler) GetOnchainBalance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	assetID, ok := paramID(c, "id")
	if !ok {
		return
	}

	balance, err := h.walletService.OnchainBalance(c.Request.Context(), userID, assetID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"asset_id": assetID, "balance": balance})
}

// GetMyDeposits lists deposits credited to the caller
// GET /api/wallet/deposits
func (h *WalletHandler) GetMyDeposits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page := pagination(c)
	deposits, total, err := h.walletService.ListDeposits(c.Request.Context(), &userID, page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, deposits, total, page)
}

// RequestWithdrawal opens a withdrawal request
// POST /api/wallet/withdrawals
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		AssetID            uint            `json:"asset_id" binding:"required"`
		Amount             decimal.Decimal `json:"amount"`
		DestinationAddress string          `json:"destination_address" binding:"required,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !requirePositive(c, "amount", req.Amount) {
		return
	}

	withdrawal, err := h.walletService.RequestWithdrawal(c.Request.Context(), userID, req.AssetID, req.Amount, req.DestinationAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "withdrawal requested", withdrawal)
}

// GetMyWithdrawals lists the caller's withdrawal requests
// GET /api/wallet/withdrawals
func (h *WalletHandler) GetMyWithdrawals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page := pagination(c)
	list, total, err := h.walletService.ListWithdrawals(c.Request.Context(), services.WithdrawalFilter{
		UserID: &userID,
		Status: models.WithdrawalStatus(c.Query("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, list, total, page)
}

// GetWithdrawal returns one of the caller's withdrawal requests
// GET /api/wallet/withdrawals/:id
func (h *WalletHandler) GetWithdrawal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	withdrawal, err := h.walletService.GetWithdrawal(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, withdrawal)
}

// CancelWithdrawal cancels a request still awaiting review
// POST /api/wallet/withdrawals/:id/cancel
func (h *WalletHandler) CancelWithdrawal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	withdrawal, err := h.walletService.CancelWithdrawal(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "withdrawal cancelled", withdrawal)
}

// ListAllAssets includes disabled assets
// GET /api/admin/wallet/assets
func (h *WalletHandler) ListAllAssets(c *gin.Context) {
	assets, err := h.walletService.ListAssets(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, assets)
}

// UpsertAsset creates or updates an asset
// PUT /api/admin/wallet/assets
func (h *WalletHandler) UpsertAsset(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req struct {
		Symbol            string `json:"symbol" binding:"required,max=20"`
		Network           string `json:"network" binding:"required,max=50"`
		Name              string `json:"name" binding:"max=120"`
		Chain             string `json:"chain" binding:"required"`
		Decimals          int    `json:"decimals"`
		MinDeposit        string `json:"min_deposit"`
		MinWithdrawal     string `json:"min_withdrawal"`
		WithdrawalFee     string `json:"withdrawal_fee"`
		DepositEnabled    bool   `json:"deposit_enabled"`
		WithdrawalEnabled bool   `json:"withdrawal_enabled"`
		IsActive          bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	asset, err := h.walletService.UpsertAsset(c.Request.Context(), services.AssetParams{
		Symbol:            req.Symbol,
		Network:           req.Network,
		Name:              req.Name,
		Chain:             req.Chain,
		Decimals:          req.Decimals,
		MinDeposit:        req.MinDeposit,
		MinWithdrawal:     req.MinWithdrawal,
		WithdrawalFee:     req.WithdrawalFee,
		DepositEnabled:    req.DepositEnabled,
		WithdrawalEnabled: req.WithdrawalEnabled,
		IsActive:          req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "UPSERT_ASSET", "ASSET", &asset.ID, map[string]interface{}{
		"symbol":  asset.Symbol,
		"network": asset.Network,
	})
	respond(c, http.StatusOK, asset)
}

// SetAssetActive toggles an asset
// PUT /api/admin/wallet/assets/:id/active
func (h *WalletHandler) SetAssetActive(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	asset, err := h.walletService.SetAssetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "SET_ASSET_ACTIVE", "ASSET", &id, map[string]interface{}{
		"is_active": *req.IsActive,
	})
	respond(c, http.StatusOK, asset)
}

// CreditDeposit credits a confirmed inbound transfer
// POST /api/admin/wallet/deposits
func (h *WalletHandler) CreditDeposit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req struct {
		UserID  uint            `json:"user_id" binding:"required"`
		AssetID uint            `json:"asset_id" binding:"required"`
		Amount  decimal.Decimal `json:"amount"`
		TxHash  string          `json:"tx_hash" binding:"max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !requirePositive(c, "amount", req.Amount) {
		return
	}

	deposit, err := h.walletService.CreditDeposit(c.Request.Context(), a.ID, services.CreditDepositParams{
		UserID:  req.UserID,
		AssetID: req.AssetID,
		Amount:  req.Amount,
		TxHash:  req.TxHash,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "CREDIT_DEPOSIT", "CRYPTO_DEPOSIT", &deposit.ID, map[string]interface{}{
		"user_id":  req.UserID,
		"asset_id": req.AssetID,
		"amount":   req.Amount.String(),
		"tx_hash":  req.TxHash,
	})
	respond(c, http.StatusCreated, deposit)
}

// ListDeposits lists every credited deposit
// GET /api/admin/wallet/deposits
func (h *WalletHandler) ListDeposits(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	page := pagination(c)
	deposits, total, err := h.walletService.ListDeposits(c.Request.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, deposits, total, page)
}

// ListWithdrawals lists every withdrawal request
// GET /api/admin/wallet/withdrawals
func (h *WalletHandler) ListWithdrawals(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	page := pagination(c)
	list, total, err := h.walletService.ListWithdrawals(c.Request.Context(), services.WithdrawalFilter{
		UserID: userID,
		Status: models.WithdrawalStatus(c.Query("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, list, total, page)
}

// TransitionWithdrawal moves a request through the review pipeline
// PUT /api/admin/wallet/withdrawals/:id/status
func (h *WalletHandler) TransitionWithdrawal(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.WithdrawalStatus `json:"status" binding:"required"`
		TxHash string                  `json:"tx_hash" binding:"max=128"`
		Notes  string                  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	withdrawal, err := h.walletService.TransitionWithdrawal(c.Request.Context(), a.ID, id, services.TransitionParams{
		Status: req.Status,
		TxHash: req.TxHash,
		Notes:  req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "TRANSITION_WITHDRAWAL", "WITHDRAWAL", &id, map[string]interface{}{
		"status":  withdrawal.Status,
		"tx_hash": withdrawal.TxHash,
	})
	respond(c, http.StatusOK, withdrawal)
}
