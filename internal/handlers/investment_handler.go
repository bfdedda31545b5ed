package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investment-platform/internal/models"
	"investment-platform/internal/services"
)

type InvestmentHandler struct {
	investmentService *services.InvestmentService
	adminService      *services.AdminService
}

func NewInvestmentHandler(investments *services.InvestmentService, admin *services.AdminService) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investments, adminService: admin}
}

// CreateInvestment invests wallet funds into a plan
// POST /api/investments
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		PlanID uint            `json:"plan_id" binding:"required"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !requirePositive(c, "amount", req.Amount) {
		return
	}

	investment, err := h.investmentService.Create(c.Request.Context(), userID, req.PlanID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "investment created", investment)
}

// GetMyInvestments lists the caller's investments
// GET /api/investments
func (h *InvestmentHandler) GetMyInvestments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page := pagination(c)
	investments, total, err := h.investmentService.List(c.Request.Context(), services.InvestmentFilter{
		UserID: &userID,
		Status: models.InvestmentStatus(c.Query("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, investments, total, page)
}

// GetInvestment returns one of the caller's investments with its history
// GET /api/investments/:id
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	investment, err := h.investmentService.GetForUser(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, investment)
}

// ListInvestments lists every investment for the back office
// GET /api/admin/investments
func (h *InvestmentHandler) ListInvestments(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}

	page := pagination(c)
	investments, total, err := h.investmentService.List(c.Request.Context(), services.InvestmentFilter{
		UserID: userID,
		Status: models.InvestmentStatus(c.Query("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, investments, total, page)
}

// AdminGetInvestment returns any investment
// GET /api/admin/investments/:id
func (h *InvestmentHandler) AdminGetInvestment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	investment, err := h.investmentService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, investment)
}

// UpdateValue records a new valuation
// PUT /api/admin/investments/:id/value
func (h *InvestmentHandler) UpdateValue(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		CurrentValue decimal.Decimal `json:"current_value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	investment, err := h.investmentService.UpdateValue(c.Request.Context(), id, req.CurrentValue)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "UPDATE_INVESTMENT_VALUE", "INVESTMENT", &id, map[string]interface{}{
		"current_value": investment.CurrentValue.String(),
		"profit":        investment.Profit.String(),
	})
	respond(c, http.StatusOK, investment)
}

// CompleteInvestment pays out an active investment
// POST /api/admin/investments/:id/complete
func (h *InvestmentHandler) CompleteInvestment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	investment, err := h.investmentService.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "COMPLETE_INVESTMENT", "INVESTMENT", &id, map[string]interface{}{
		"payout": investment.CurrentValue.String(),
	})
	respondMessage(c, http.StatusOK, "investment completed", investment)
}

// CancelInvestment refunds an active investment's principal
// POST /api/admin/investments/:id/cancel
func (h *InvestmentHandler) CancelInvestment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// body is optional
	_ = c.ShouldBindJSON(&req)

	investment, err := h.investmentService.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "CANCEL_INVESTMENT", "INVESTMENT", &id, map[string]interface{}{
		"reason": req.Reason,
	})
	respondMessage(c, http.StatusOK, "investment cancelled", investment)
}
