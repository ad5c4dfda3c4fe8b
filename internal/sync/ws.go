package sync

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // storefront pages are served from other origins
	},
}

// WSHandler upgrades the request and keeps the client registered until it
// disconnects. ?session= follows one cart from the start; a subscribe
// message switches later.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		session := strings.TrimSpace(c.Query("session"))

		_ = ws.WriteMessage(websocket.TextMessage, hub.welcome("websocket", session))
		hub.AddWS(ws, session)
		hub.logger.Debug("ws client connected", zap.String("session", session))

		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				break
			}
			if s, ok := parseSubscribe(msg); ok {
				hub.FollowWS(ws, s)
				hub.mu.Lock()
				_ = ws.WriteMessage(websocket.TextMessage, subscribedAck(s))
				hub.mu.Unlock()
			}
		}

		hub.RemoveWS(ws)
		hub.logger.Debug("ws client disconnected")
	}
}
