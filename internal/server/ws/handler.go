package ws

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Handler returns the fiber handler for the /ws endpoint: upgrade, then a
// read loop decoding command frames into the coordinator.
func Handler(coord *Coordinator) fiber.Handler {
	serve := websocket.New(func(conn *websocket.Conn) {
		sess := newSession(conn)
		go sess.writePump()
		defer func() {
			coord.Disconnect(sess)
			sess.close()
		}()

		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd ClientCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				sess.Send(errorFrame("Malformed command."))
				continue
			}
			coord.Dispatch(sess, cmd)
		}
	})

	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return serve(c)
		}
		return fiber.ErrUpgradeRequired
	}
}
