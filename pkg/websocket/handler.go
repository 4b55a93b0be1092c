package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"matchmaking/config"
	"matchmaking/pkg/logger"
	"matchmaking/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 客户端帧类型
const (
	FrameSendMessage    = "send-message"
	FrameHeartbeat      = "heartbeat"
	FrameReceiveMessage = "receive-message"
	FrameMessageSent    = "message-sent"
	FrameError          = "error"
)

// Frame 客户端发来的帧
type Frame struct {
	Type              string `json:"type"`
	ReceiverProfileID string `json:"receiver_profile_id,omitempty"`
	Text              string `json:"text,omitempty"`
}

// ProfileResolver 根据token解析出调用者的资料ID
type ProfileResolver func(ctx context.Context, token string) (string, error)

// FrameHandler 处理 send-message 帧，返回值会回写给发送方
type FrameHandler func(ctx context.Context, senderProfileID string, frame Frame) (interface{}, error)

// Presence 在线状态存储
type Presence interface {
	SetOnline(ctx context.Context, profileID string, connections int) error
	SetOffline(ctx context.Context, profileID string) error
	Refresh(ctx context.Context, profileID string) (bool, error)
}

// Handler WebSocket 接入
type Handler struct {
	hub      *Hub
	resolve  ProfileResolver
	onFrame  FrameHandler
	presence Presence
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewHandler 创建WebSocket处理器，presence 可为 nil
func NewHandler(hub *Hub, resolve ProfileResolver, onFrame FrameHandler, presence Presence, cfg config.WebSocketConfig, allowedOrigins []string) *Handler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 90 * time.Second
	}
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Handler{
		hub:      hub,
		resolve:  resolve,
		onFrame:  onFrame,
		presence: presence,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(origins) == 0 || origins[origin]
			},
		},
	}
}

// Serve Gin路由处理函数：/ws?token=...
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(c, "缺少token")
		return
	}

	profileID, err := h.resolve(c.Request.Context(), token)
	if err != nil || profileID == "" {
		response.Unauthorized(c, "token无效或未创建资料")
		return
	}

	// 回显子协议，避免客户端提示 "Server sent no subprotocol"
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		logger.Warn("WebSocket升级失败", zap.Error(err))
		return
	}

	client := NewClient(profileID, conn, h.cfg.SendBuffer)
	connections := h.hub.Register(client)
	h.setOnline(profileID, connections)
	logger.Info("WebSocket连接建立", zap.String("profile_id", profileID), zap.Int("connections", connections))

	defer func() {
		remaining := h.hub.Unregister(client)
		if remaining == 0 {
			h.setOffline(profileID)
		} else {
			h.setOnline(profileID, remaining)
		}
		_ = conn.Close()
		logger.Info("WebSocket连接关闭", zap.String("profile_id", profileID))
	}()

	go h.writeLoop(client)
	h.readLoop(client)
}

// writeLoop 写协程 + 定时发送ping心跳，Send 被关闭后退出
func (h *Handler) writeLoop(client *Client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				_ = client.Conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// readLoop 读协程（接收心跳/客户端消息），超时未收到任何读事件则断开
func (h *Handler) readLoop(client *Client) {
	conn := client.Conn
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		if h.presence != nil {
			_, _ = h.presence.Refresh(context.Background(), client.ProfileID)
		}
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))

		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			h.reply(client, FrameError, gin.H{"message": "无法解析的消息"})
			continue
		}

		switch frame.Type {
		case FrameSendMessage:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			result, err := h.onFrame(ctx, client.ProfileID, frame)
			cancel()
			if err != nil {
				h.reply(client, FrameError, gin.H{"message": err.Error()})
				continue
			}
			h.reply(client, FrameMessageSent, result)
		case FrameHeartbeat:
			// 刷新在线状态（延长TTL）
			if h.presence != nil {
				_, _ = h.presence.Refresh(context.Background(), client.ProfileID)
			}
		default:
			h.reply(client, FrameError, gin.H{"message": "未知的消息类型"})
		}
	}
}

// reply 回写给当前连接，缓冲区满时丢弃
// 只在 readLoop 中调用，此时连接尚未 Unregister，Send 未关闭
func (h *Handler) reply(client *Client, frameType string, data interface{}) {
	payload, err := json.Marshal(gin.H{"type": frameType, "data": data})
	if err != nil {
		return
	}
	select {
	case client.Send <- payload:
	default:
	}
}

func (h *Handler) setOnline(profileID string, connections int) {
	if h.presence == nil {
		return
	}
	if err := h.presence.SetOnline(context.Background(), profileID, connections); err != nil {
		logger.Warn("更新在线状态失败", zap.String("profile_id", profileID), zap.Error(err))
	}
}

func (h *Handler) setOffline(profileID string) {
	if h.presence == nil {
		return
	}
	if err := h.presence.SetOffline(context.Background(), profileID); err != nil {
		logger.Warn("更新在线状态失败", zap.String("profile_id", profileID), zap.Error(err))
	}
}

// EncodeEvent 编码推送给接收方的事件
func EncodeEvent(frameType string, data interface{}) ([]byte, error) {
	return json.Marshal(gin.H{"type": frameType, "data": data})
}
