package handler

import (
	"net/http"
	"strings"

	"shopapp/internal/config"
	"shopapp/internal/middleware"
	"shopapp/internal/notifier"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// /ws/orders の管理者向けリアルタイム配信。
// ブラウザのWebSocketはAuthorizationヘッダを付けられないので
// クエリパラメータ token でも受け付ける。
type WSHandler struct {
	hub      *notifier.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *notifier.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 認可はトークンで行うのでOriginは見ない
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.GET("/ws/orders", h.orders(cfg))
}

func (h *WSHandler) orders(cfg config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		rawToken := extractToken(c)
		if rawToken == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		}

		userID, role, ok := middleware.VerifyToken(rawToken, cfg.JWTSecret)
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		}
		if role != "ADMIN" {
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin only"})
		}

		conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// Upgradeが失敗した時点でレスポンスは書き込み済み
			return nil
		}

		h.hub.Serve(conn, userID)
		return nil
	}
}

func extractToken(c echo.Context) string {
	if authz := c.Request().Header.Get("Authorization"); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.QueryParam("token")
}
