package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"investment-platform/internal/services"
)

type RewardHandler struct {
	rewardService *services.RewardService
	adminService  *services.AdminService
}

func NewRewardHandler(rewards *services.RewardService, admin *services.AdminService) *RewardHandler {
	return &RewardHandler{rewardService: rewards, adminService: admin}
}

// GetMyRewards returns the caller's points, tier and history
// GET /api/rewards
func (h *RewardHandler) GetMyRewards(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	reward, err := h.rewardService.GetByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, reward)
}

// GetCatalog lists what points can be redeemed for
// GET /api/rewards/catalog
func (h *RewardHandler) GetCatalog(c *gin.Context) {
	respond(c, http.StatusOK, services.RewardCatalog)
}

// Redeem exchanges points for a catalog item
// POST /api/rewards/redeem
func (h *RewardHandler) Redeem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	redemption, err := h.rewardService.Redeem(c.Request.Context(), userID, req.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "reward redeemed", redemption)
}

// ListRewards ranks all users by points
// GET /api/admin/rewards
func (h *RewardHandler) ListRewards(c *gin.Context) {
	page := pagination(c)
	rewards, total, err := h.rewardService.List(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, rewards, total, page)
}

// AdjustPoints adds or removes points for a user
// POST /api/admin/rewards/:userId/adjust
func (h *RewardHandler) AdjustPoints(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	var req struct {
		Points int64  `json:"points" binding:"required"`
		Note   string `json:"note" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reward, err := h.rewardService.AdjustPoints(c.Request.Context(), userID, req.Points, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	h.adminService.LogAction(c.Request.Context(), a.ID, "ADJUST_POINTS", "USER", &userID, map[string]interface{}{
		"points": req.Points,
		"note":   req.Note,
	})
	respond(c, http.StatusOK, reward)
}
