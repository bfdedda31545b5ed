package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"investment-platform/internal/auth"
	"investment-platform/internal/services"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondList(c *gin.Context, data interface{}, total int64, page Page) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"total":   total,
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// statusFor maps a service error class to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err; unclassified errors are logged and hidden behind a generic message
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		fail(c, status, "internal server error")
		return
	}
	fail(c, status, err.Error())
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
}

// Page is a parsed limit/offset pair
type Page struct {
	Limit  int
	Offset int
}

func pagination(c *gin.Context) Page {
	page := Page{Limit: defaultLimit}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		page.Limit = v
	}
	if page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		page.Offset = v
	}
	return page
}

// paramID parses a positive numeric path parameter, answering 400 on failure
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter
func queryID(c *gin.Context, name string) (*uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// currentUser returns the authenticated user id, answering 401 if missing
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}

// actor returns the authenticated caller as a services.Actor
func actor(c *gin.Context) (services.Actor, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := auth.GetRole(c)
	return services.Actor{ID: userID, Role: role}, true
}

// requirePositive rejects zero or negative amounts at the edge
func requirePositive(c *gin.Context, field string, v decimal.Decimal) bool {
	if !v.IsPositive() {
		fail(c, http.StatusBadRequest, field+" must be greater than zero")
		return false
	}
	return true
}
