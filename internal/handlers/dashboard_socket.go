package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"investment-platform/internal/auth"
	"investment-platform/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// DashboardSocket pushes the user's dashboard over a WebSocket at a fixed interval
type DashboardSocket struct {
	dashboard *services.DashboardService
	users     *services.UserService
	interval  time.Duration
	upgrader  websocket.Upgrader
}

func NewDashboardSocket(dashboard *services.DashboardService, users *services.UserService, interval time.Duration, allowedOrigin string) *DashboardSocket {
	return &DashboardSocket{
		dashboard: dashboard,
		users:     users,
		interval:  interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// bearer takes the token from the Authorization header or, for browsers, ?token=
func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// Serve upgrades the request and streams dashboard snapshots until the client leaves
// GET /api/users/dashboard/ws
func (h *DashboardSocket) Serve(c *gin.Context) {
	claims, err := auth.ValidateToken(bearer(c))
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	active, err := h.users.IsActive(c.Request.Context(), claims.UserID)
	if err != nil || !active {
		fail(c, http.StatusForbidden, "account is deactivated")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	closed := make(chan struct{})

	// reader only handles control frames and notices the client leaving
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					zap.L().Debug("Dashboard socket closed", zap.Error(err))
				}
				return
			}
		}
	}()

	push := func() bool {
		snapshot, err := h.dashboard.Get(ctx, claims.UserID)
		if err != nil {
			zap.L().Error("Failed to build dashboard", zap.Uint("user_id", claims.UserID), zap.Error(err))
			return true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(gin.H{"type": "dashboard", "data": snapshot}); err != nil {
			return false
		}
		return true
	}

	if !push() {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	for {
		select {
		case <-ticker.C:
			if !push() {
				return
			}
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
