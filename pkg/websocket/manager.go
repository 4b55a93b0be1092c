package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client 代表一个WebSocket连接
// ProfileID: 连接所属资料
// Conn: WebSocket连接（测试中可为空）
// Send: 待发送消息的缓冲通道

type Client struct {
	ProfileID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// NewClient 创建连接，buffer 为发送缓冲区大小
func NewClient(profileID string, conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{ProfileID: profileID, Conn: conn, Send: make(chan []byte, buffer)}
}

// Hub 管理所有在线连接，一份资料可同时有多条连接
// 推送为至多一次：离线或缓冲区已满时直接丢弃，不做补发

type Hub struct {
	clients map[string]map[*Client]struct{}
	lock    sync.RWMutex
}

// NewHub 创建Hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

// Register 添加连接，返回该资料当前连接数
func (h *Hub) Register(c *Client) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	set, ok := h.clients[c.ProfileID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.ProfileID] = set
	}
	set[c] = struct{}{}
	return len(set)
}

// Unregister 移除连接并关闭其发送通道，返回该资料剩余连接数
func (h *Hub) Unregister(c *Client) int {
	h.lock.Lock()
	defer h.lock.Unlock()
	set, ok := h.clients[c.ProfileID]
	if !ok {
		return 0
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.Send)
	}
	if len(set) == 0 {
		delete(h.clients, c.ProfileID)
		return 0
	}
	return len(set)
}

// Publish 推送给资料的全部在线连接，返回成功放入缓冲区的连接数
func (h *Hub) Publish(profileID string, msg []byte) int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	delivered := 0
	for c := range h.clients[profileID] {
		select {
		case c.Send <- msg:
			delivered++
		default:
			// 缓冲区已满，丢弃
		}
	}
	return delivered
}

// IsOnline 资料是否有在线连接
func (h *Hub) IsOnline(profileID string) bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients[profileID]) > 0
}

// Connections 资料当前连接数
func (h *Hub) Connections(profileID string) int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients[profileID])
}
