package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Client 一条 websocket 连接，一个读 goroutine 一个写 goroutine
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

// peerID 房间内的身份：优先使用消息里的 userId，其次是登录用户，最后是连接 id
func (c *Client) peerID(requested string) string {
	if requested != "" {
		return requested
	}
	if c.userID != "" {
		return c.userID
	}
	return c.id
}

// enqueue 缓冲已满时返回 false
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.disconnect(c)
		c.close()
	}()

	pongWait := c.hub.cfg.pongWait()
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("[Relay] Client %s closed unexpectedly: %v", c.id, err)
			}
			return
		}

		env, err := decodeEnvelope(data)
		if err != nil {
			log.Debugf("[Relay] Dropping malformed frame from client %s: %v", c.id, err)
			continue
		}
		c.hub.handle(c, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.conn.Close()
	}()

	wait := c.hub.cfg.WriteWait
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wait))
			return
		}
	}
}
