package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investment-platform/internal/models"
	"investment-platform/internal/services"
)

type ReferralHandler struct {
	referralService *services.ReferralService
	settingService  *services.ReferralSettingService
	adminService    *services.AdminService
}

func NewReferralHandler(referrals *services.ReferralService, settings *services.ReferralSettingService, admin *services.AdminService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referrals,
		settingService:  settings,
		adminService:    admin,
	}
}

// GetReferralCode returns the user's referral code
// GET /api/referrals/code
func (h *ReferralHandler) GetReferralCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	info, err := h.referralService.GetCode(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, info)
}

// ApplyReferralCode links the current user to the owner of a code
// POST /api/referrals/apply
func (h *ReferralHandler) ApplyReferralCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	referral, err := h.referralService.Apply(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "referral code applied successfully", referral)
}

// GetMyReferrals lists the users the caller referred
// GET /api/referrals
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	referrals, err := h.referralService.ListByReferrer(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, referrals)
}

// GetReferralStats returns referral statistics for the caller
// GET /api/referrals/stats
func (h *ReferralHandler) GetReferralStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.referralService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

// ListReferrals lists every referral for the back office
// GET /api/admin/referrals
func (h *ReferralHandler) ListReferrals(c *gin.Context) {
	page := pagination(c)
	referrals, total, err := h.referralService.List(c.Request.Context(),
		models.ReferralStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, referrals, total, page)
}

// CreateReferral records a referral between two users
// POST /api/admin/referrals
func (h *ReferralHandler) CreateReferral(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req struct {
		ReferrerID uint `json:"referrer_id" binding:"required"`
		RefereeID  uint `json:"referee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	referral, err := h.referralService.Create(c.Request.Context(), req.ReferrerID, req.RefereeID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "CREATE_REFERRAL", "REFERRAL", &referral.ID, map[string]interface{}{
		"referrer_id": req.ReferrerID,
		"referee_id":  req.RefereeID,
	})
	respond(c, http.StatusCreated, referral)
}

// CompleteReferral marks a pending referral completed
// POST /api/admin/referrals/:id/complete
func (h *ReferralHandler) CompleteReferral(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	referral, err := h.referralService.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "COMPLETE_REFERRAL", "REFERRAL", &id, nil)
	respond(c, http.StatusOK, referral)
}

// RewardReferral pays the bonus points of a completed referral
// POST /api/admin/referrals/:id/reward
func (h *ReferralHandler) RewardReferral(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	referral, err := h.referralService.Reward(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "REWARD_REFERRAL", "REFERRAL", &id, map[string]interface{}{
		"referrer_points": referral.ReferrerPoints,
		"referee_points":  referral.RefereePoints,
	})
	respond(c, http.StatusOK, referral)
}

// GetActiveSetting returns the referral bonus configuration in force
// GET /api/referral-settings/active
func (h *ReferralHandler) GetActiveSetting(c *gin.Context) {
	setting, err := h.settingService.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, setting)
}

// GetSettingHistory lists every saved referral setting
// GET /api/referral-settings
func (h *ReferralHandler) GetSettingHistory(c *gin.Context) {
	page := pagination(c)
	settings, total, err := h.settingService.History(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, settings, total, page)
}

// UpdateSetting stores a new active referral setting
// PUT /api/referral-settings
func (h *ReferralHandler) UpdateSetting(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req struct {
		ReferrerPoints    int64           `json:"referrer_points"`
		RefereePoints     int64           `json:"referee_points"`
		MinimumInvestment decimal.Decimal `json:"minimum_investment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	setting, err := h.settingService.Update(c.Request.Context(), a.ID, services.UpdateReferralSettingParams{
		ReferrerPoints:    req.ReferrerPoints,
		RefereePoints:     req.RefereePoints,
		MinimumInvestment: req.MinimumInvestment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "UPDATE_REFERRAL_SETTING", "REFERRAL_SETTING", &setting.ID, map[string]interface{}{
		"referrer_points":    setting.ReferrerPoints,
		"referee_points":     setting.RefereePoints,
		"minimum_investment": setting.MinimumInvestment.String(),
	})
	respondMessage(c, http.StatusOK, "referral setting updated", setting)
}
