package relay

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anoixa/colab/utils"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Config 中继配置
type Config struct {
	SendBuffer      int
	MaxMessageBytes int64
	PingPeriod      time.Duration
	WriteWait       time.Duration
	AllowedOrigin   string
}

func (c Config) withDefaults() Config {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = 16 << 10
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = 30 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	return c
}

// pongWait 读超时，需大于 ping 间隔
func (c Config) pongWait() time.Duration {
	return c.PingPeriod * 10 / 9
}

// Stats 中继运行指标
type Stats struct {
	Rooms   int   `json:"rooms"`
	Clients int   `json:"clients"`
	Relayed int64 `json:"relayed"`
	Dropped int64 `json:"dropped"`
}

// Hub 只负责房间成员关系与消息分发，不保存任何文本
type Hub struct {
	cfg      Config
	instance string
	broker   Broker
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	rooms   map[string]map[*Client]string // roomID -> client -> peer id
	clients map[*Client]map[string]string // client -> roomID -> peer id

	relayed atomic.Int64
	dropped atomic.Int64
}

// NewHub broker 为 nil 时只在本实例内分发
func NewHub(cfg Config, broker Broker) *Hub {
	cfg = cfg.withDefaults()
	h := &Hub{
		cfg:      cfg,
		instance: uuid.NewString(),
		broker:   broker,
		rooms:    make(map[string]map[*Client]string),
		clients:  make(map[*Client]map[string]string),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if h.cfg.AllowedOrigin == "" || h.cfg.AllowedOrigin == "*" {
		return true
	}
	return r.Header.Get("Origin") == h.cfg.AllowedOrigin
}

// Run 订阅跨实例广播，阻塞直到 ctx 结束
func (h *Hub) Run(ctx context.Context) error {
	if h.broker == nil {
		<-ctx.Done()
		return nil
	}
	log.Printf("[Relay] Subscribing to cross-instance broadcasts via %s", h.broker.Name())
	return h.broker.Subscribe(ctx, h.onRemote)
}

// ServeWS 升级连接并阻塞处理，直到连接关闭
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, userID)
	h.register(c)
	utils.SafeGo(c.writePump)
	c.readPump()
	return nil
}

// Peers 返回房间内当前的 peer id，已排序
func (h *Hub) Peers(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	peers := make([]string, 0, len(h.rooms[roomID]))
	for _, peer := range h.rooms[roomID] {
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	return peers
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Rooms:   len(h.rooms),
		Clients: len(h.clients),
		Relayed: h.relayed.Load(),
		Dropped: h.dropped.Load(),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]string)
	}
}

// join 加入房间，返回房间是否为新建
func (h *Hub) join(c *Client, roomID, peer string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]string)
		h.rooms[roomID] = members
	}
	members[c] = peer

	memberships, exists := h.clients[c]
	if !exists {
		memberships = make(map[string]string)
		h.clients[c] = memberships
	}
	memberships[roomID] = peer
	return !ok
}

func (h *Hub) leave(c *Client, roomID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(c, roomID)
}

func (h *Hub) leaveLocked(c *Client, roomID string) (string, bool) {
	members, ok := h.rooms[roomID]
	if !ok {
		return "", false
	}
	peer, ok := members[c]
	if !ok {
		return "", false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
	if memberships, exists := h.clients[c]; exists {
		delete(memberships, roomID)
	}
	return peer, true
}

func (h *Hub) peerIn(c *Client, roomID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	peer, ok := h.clients[c][roomID]
	return peer, ok
}

// disconnect 移除客户端的所有成员关系并通知各房间
func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	memberships, ok := h.clients[c]
	if !ok {
		h.mu.Unlock()
		return
	}
	left := make(map[string]string, len(memberships))
	for roomID := range memberships {
		if peer, removed := h.leaveLocked(c, roomID); removed {
			left[roomID] = peer
		}
	}
	delete(h.clients, c)
	h.mu.Unlock()

	for roomID, peer := range left {
		h.broadcast(roomID, Envelope{Event: EventDisconnectUser, RoomID: roomID, UserID: peer}, c)
	}
}

// broadcast 发给房间内除 except 外的成员，并转发到其他实例
func (h *Hub) broadcast(roomID string, env Envelope, except *Client) {
	data := env.encode()
	h.deliverLocal(roomID, data, except)
	h.relayed.Add(1)

	if h.broker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.WriteWait)
	defer cancel()
	if err := h.broker.Publish(ctx, Message{Origin: h.instance, RoomID: roomID, Payload: data}); err != nil {
		log.Warnf("[Relay] Failed to publish to %s for room %s: %v", h.broker.Name(), utils.SanitizeLogMessage(roomID), err)
	}
}

func (h *Hub) onRemote(msg Message) {
	if msg.Origin == h.instance {
		return
	}
	h.deliverLocal(msg.RoomID, msg.Payload, nil)
}

// deliverLocal 非阻塞投递，发送缓冲已满的客户端被断开
func (h *Hub) deliverLocal(roomID string, data []byte, except *Client) {
	var slow []*Client

	h.mu.RLock()
	for c := range h.rooms[roomID] {
		if c == except {
			continue
		}
		if !c.enqueue(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.dropped.Add(1)
		log.Warnf("[Relay] Dropping slow client %s from room %s", c.id, utils.SanitizeLogMessage(roomID))
		c.close()
		h.disconnect(c)
	}
}

// handle 处理一条客户端消息，未知事件只记日志
func (h *Hub) handle(c *Client, env Envelope) {
	switch env.Event {
	case EventCreateRoom:
		roomID := env.RoomID
		if roomID == "" {
			roomID = uuid.NewString()
		}
		peer := c.peerID(env.UserID)
		h.join(c, roomID, peer)
		c.enqueue(Envelope{Event: EventRoomCreated, RoomID: roomID, UserID: peer}.encode())
		h.broadcast(roomID, Envelope{Event: EventUserJoined, RoomID: roomID, UserID: peer}, c)

	case EventJoinRoom:
		if env.RoomID == "" {
			c.enqueue(errorEnvelope("", ErrRoomRequired).encode())
			return
		}
		peer := c.peerID(env.UserID)
		h.join(c, env.RoomID, peer)
		h.broadcast(env.RoomID, Envelope{Event: EventUserJoined, RoomID: env.RoomID, UserID: peer}, c)

	case EventTyping:
		if env.RoomID == "" {
			c.enqueue(errorEnvelope("", ErrRoomRequired).encode())
			return
		}
		peer, ok := h.peerIn(c, env.RoomID)
		if !ok {
			c.enqueue(errorEnvelope(env.RoomID, ErrNotInRoom).encode())
			return
		}
		h.broadcast(env.RoomID, Envelope{Event: EventTyping, RoomID: env.RoomID, Content: env.Content, UserID: peer}, c)

	case EventLeaveRoom, EventDisconnectUser:
		if env.RoomID == "" {
			if env.Event == EventLeaveRoom {
				c.enqueue(errorEnvelope("", ErrRoomRequired).encode())
				return
			}
			h.disconnect(c)
			h.register(c)
			return
		}
		if peer, ok := h.leave(c, env.RoomID); ok {
			h.broadcast(env.RoomID, Envelope{Event: EventDisconnectUser, RoomID: env.RoomID, UserID: peer}, c)
		}

	default:
		log.Debugf("[Relay] Dropping unknown event %q from client %s", utils.SanitizeLogMessage(env.Event), c.id)
	}
}
