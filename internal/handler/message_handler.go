package handler

import (
	"context"
	"fmt"
	"strconv"

	"matchmaking/internal/service"
	"matchmaking/pkg/jwt"
	"matchmaking/pkg/response"
	"matchmaking/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	service  *service.MessageService
	profiles CallerProfiles
}

// NewMessageHandler 创建MessageHandler实例
func NewMessageHandler(s *service.MessageService, profiles CallerProfiles) *MessageHandler {
	return &MessageHandler{service: s, profiles: profiles}
}

// SendMessage 发送消息，仅限互相匹配的资料
func (h *MessageHandler) SendMessage(c *gin.Context) {
	type req struct {
		ReceiverProfileID string `json:"receiver_profile_id" binding:"required,max=50"`
		Text              string `json:"text" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sender, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}

	message, err := h.service.Send(c.Request.Context(), sender, r.ReceiverProfileID, r.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, "消息发送成功", response.FilterMessageInfo(message))
}

// GetConversation 与指定资料的聊天记录
func (h *MessageHandler) GetConversation(c *gin.Context) {
	own, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}
	page := pageQuery(c)
	messages, err := h.service.Conversation(c.Request.Context(), own, c.Param("pid"), page)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]*response.MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, response.FilterMessageInfo(&messages[i]))
	}
	response.Success(c, gin.H{"messages": out, "page": page.Page, "limit": page.Limit})
}

// DeleteMessage 删除自己发送的消息
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	own, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), messageID, own); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "消息已删除", nil)
}

// HandleFrame 处理 WebSocket 上的 send-message 帧
func (h *MessageHandler) HandleFrame(ctx context.Context, sender string, frame websocket.Frame) (interface{}, error) {
	message, err := h.service.Send(ctx, sender, frame.ReceiverProfileID, frame.Text)
	if err != nil {
		return nil, err
	}
	return response.FilterMessageInfo(message), nil
}

// TokenProfileResolver 校验 WebSocket 握手携带的token并解析出资料ID
func TokenProfileResolver(tokens *jwt.JWTService, profiles CallerProfiles) websocket.ProfileResolver {
	return func(ctx context.Context, token string) (string, error) {
		claims, err := tokens.ValidateToken(token)
		if err != nil {
			return "", err
		}
		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid subject %q: %w", claims.Subject, err)
		}
		return profiles.ProfileIDForUser(ctx, uint(userID))
	}
}
