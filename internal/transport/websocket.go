package transport

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"go-livestock-classifier/internal/controller"
	apperrors "go-livestock-classifier/internal/errors"
	"go-livestock-classifier/internal/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: wsWriteWait,
	ReadBufferSize:   1024,
	WriteBufferSize:  4096,
}

// streamState pushes every state change of the visitor's page controller as
// JSON until either side goes away.
func streamState(registry *controller.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl := pageController(c, registry)
		log := logger.ForSession(ctrl.ID())

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// The upgrader has already answered the request.
			log.WithError(apperrors.NewUpgradeError(err)).Warn("WebSocket handshake failed")
			return
		}
		defer conn.Close()

		updates, stop := ctrl.Watch()
		defer stop()

		go func() {
			defer stop()
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case state, ok := <-updates:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				if err := conn.WriteJSON(state); err != nil {
					log.WithError(err).Debug("State push failed")
					return
				}
				log.WithFields(logrus.Fields{"version": state.Version, "loading": state.IsLoading}).Debug("State pushed")
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
