package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investment-platform/internal/models"
	"investment-platform/internal/services"
)

// UserHandler handles profile endpoints and back-office user management
type UserHandler struct {
	userService  *services.UserService
	adminService *services.AdminService
	dashboard    *services.DashboardService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService, adminService *services.AdminService, dashboard *services.DashboardService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		adminService: adminService,
		dashboard:    dashboard,
	}
}

// GetProfile returns the current user's profile
// GET /api/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// UpdateProfile changes the current user's name or email
// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Name  *string `json:"name" binding:"omitempty,max=120"`
		Email *string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileParams{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "profile updated", user)
}

// ChangePassword replaces the current user's password
// PUT /api/users/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "password changed", nil)
}

// GetDashboard returns the current user's dashboard snapshot
// GET /api/users/dashboard
func (h *UserHandler) GetDashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboard.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, dashboard)
}

// ListUsers lists accounts for the back office
// GET /api/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := pagination(c)
	filter := services.UserFilter{
		Search: c.Query("search"),
		Role:   models.Role(c.Query("role")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	switch c.Query("is_active") {
	case "true":
		v := true
		filter.IsActive = &v
	case "false":
		v := false
		filter.IsActive = &v
	}

	users, total, err := h.adminService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, users, total, page)
}

// GetUser returns one account if the caller may view it
// GET /api/admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// UpdateUser changes name, role or active flag as the policy allows
// PUT /api/admin/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name     *string      `json:"name"`
		Role     *models.Role `json:"role"`
		IsActive *bool        `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), a, id, services.AdminUpdateUserParams{
		Name:     req.Name,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "user updated", user)
}

// AdjustWallet credits or debits a user's wallet
// POST /api/admin/users/:id/wallet
func (h *UserHandler) AdjustWallet(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Note   string          `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	txn, err := h.adminService.AdjustWallet(c.Request.Context(), a, id, req.Amount, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "wallet adjusted", txn)
}
