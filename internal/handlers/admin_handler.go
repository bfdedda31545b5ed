package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"investment-platform/internal/services"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// GetDashboard returns platform statistics
// GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

// GetAdminLogs returns the audit trail
// GET /api/admin/logs
func (h *AdminHandler) GetAdminLogs(c *gin.Context) {
	page := pagination(c)
	logs, total, err := h.adminService.GetLogs(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, logs, total, page)
}
