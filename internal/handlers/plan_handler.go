package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investment-platform/internal/auth"
	"investment-platform/internal/models"
	"investment-platform/internal/services"
)

type PlanHandler struct {
	planService  *services.PlanService
	adminService *services.AdminService
}

func NewPlanHandler(plans *services.PlanService, admin *services.AdminService) *PlanHandler {
	return &PlanHandler{planService: plans, adminService: admin}
}

type planRequest struct {
	Name              string                   `json:"name" binding:"required,max=120"`
	Description       string                   `json:"description"`
	MinimumInvestment decimal.Decimal          `json:"minimum_investment"`
	MaximumInvestment decimal.Decimal          `json:"maximum_investment"`
	DurationDays      int                      `json:"duration_days" binding:"required,min=1"`
	MonthlyReturnRate decimal.Decimal          `json:"monthly_return_rate"`
	RiskLevel         models.RiskLevel         `json:"risk_level" binding:"required"`
	AssetAllocation   []models.AssetAllocation `json:"asset_allocation" binding:"required,min=1"`
	IsActive          *bool                    `json:"is_active"`
}

func (r planRequest) params() services.PlanParams {
	return services.PlanParams{
		Name:              r.Name,
		Description:       r.Description,
		MinimumInvestment: r.MinimumInvestment,
		MaximumInvestment: r.MaximumInvestment,
		DurationDays:      r.DurationDays,
		MonthlyReturnRate: r.MonthlyReturnRate,
		RiskLevel:         r.RiskLevel,
		AssetAllocation:   r.AssetAllocation,
		IsActive:          r.IsActive,
	}
}

// ListPlans returns the active catalog
// GET /api/investment-plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, plans)
}

// ListAllPlans includes inactive plans
// GET /api/admin/investment-plans
func (h *PlanHandler) ListAllPlans(c *gin.Context) {
	plans, err := h.planService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, plans)
}

// GetPlan returns one plan with its projected value for the minimum investment
// GET /api/investment-plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !plan.IsActive && !auth.IsAdmin(c) {
		fail(c, http.StatusNotFound, "investment plan not found")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"plan":            plan,
		"projected_value": services.ProjectedValue(plan.MinimumInvestment, plan.MonthlyReturnRate, plan.DurationDays),
	})
}

// CreatePlan adds a plan to the catalog
// POST /api/investment-plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), req.params())
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "CREATE_PLAN", "INVESTMENT_PLAN", &plan.ID, map[string]interface{}{
		"name": plan.Name,
	})
	respond(c, http.StatusCreated, plan)
}

// UpdatePlan replaces a plan's fields
// PUT /api/investment-plans/:id
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	plan, err := h.planService.Update(c.Request.Context(), id, req.params())
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "UPDATE_PLAN", "INVESTMENT_PLAN", &id, map[string]interface{}{
		"name":      plan.Name,
		"is_active": plan.IsActive,
	})
	respond(c, http.StatusOK, plan)
}

// DeletePlan removes a plan, or deactivates it when investments reference it
// DELETE /api/investment-plans/:id
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	deactivated, err := h.planService.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "DELETE_PLAN", "INVESTMENT_PLAN", &id, map[string]interface{}{
		"deactivated": deactivated,
	})
	if deactivated {
		respondMessage(c, http.StatusOK, "plan has investments and was deactivated", nil)
		return
	}
	respondMessage(c, http.StatusOK, "plan deleted", nil)
}
