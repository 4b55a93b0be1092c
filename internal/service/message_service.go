package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/pkg/logger"
	"matchmaking/pkg/metrics"
	"matchmaking/pkg/response"
	"matchmaking/pkg/websocket"

	"go.uber.org/zap"
)

const maxMessageTextLength = 2000

// MessageStore 消息存储
type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
	GetConversation(ctx context.Context, a, b string, page repository.Page) ([]model.Message, error)
	DeleteMessage(ctx context.Context, messageID uint, senderProfileID string) (bool, error)
}

// MatchChecker 聊天准入判断，由 InterestService 实现
type MatchChecker interface {
	IsMutualMatch(ctx context.Context, a, b string) (bool, error)
}

// Publisher 向某资料的在线连接推送，返回送达的连接数，由 websocket.Hub 实现
type Publisher interface {
	Publish(profileID string, msg []byte) int
}

// MessageService 聊天消息，仅互相匹配的资料之间可用
// 先落库再推送，推送至多一次，离线或缓冲区满时丢弃
type MessageService struct {
	store     MessageStore
	matches   MatchChecker
	publisher Publisher
	metrics   *metrics.Metrics
}

// NewMessageService 创建MessageService实例
func NewMessageService(store MessageStore, matches MatchChecker, publisher Publisher, m *metrics.Metrics) *MessageService {
	return &MessageService{store: store, matches: matches, publisher: publisher, metrics: m}
}

// Send 发送消息
func (s *MessageService) Send(ctx context.Context, sender, receiver, text string) (*model.Message, error) {
	sender, receiver, text = strings.TrimSpace(sender), strings.TrimSpace(receiver), strings.TrimSpace(text)
	if receiver == "" {
		return nil, invalidf("receiver_profile_id is required")
	}
	if sender == receiver {
		return nil, invalidf("cannot send a message to yourself")
	}
	if text == "" {
		return nil, invalidf("text is required")
	}
	if utf8.RuneCountInString(text) > maxMessageTextLength {
		return nil, invalidf("text must be at most %d characters", maxMessageTextLength)
	}

	matched, err := s.matches.IsMutualMatch(ctx, sender, receiver)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, unauthorizedf("chat is only available between mutual matches")
	}

	message := &model.Message{SenderProfileID: sender, ReceiverProfileID: receiver, Text: text}
	if err := s.store.Create(ctx, message); err != nil {
		return nil, storageErr(err)
	}

	s.publish(message)
	return message, nil
}

// publish 推送给接收方的在线连接，失败只记录日志
func (s *MessageService) publish(message *model.Message) {
	if s.publisher == nil {
		return
	}
	payload, err := websocket.EncodeEvent(websocket.FrameReceiveMessage, response.FilterMessageInfo(message))
	if err != nil {
		logger.Error("编码推送消息失败", zap.Uint("message_id", message.ID), zap.Error(err))
		return
	}
	delivered := s.publisher.Publish(message.ReceiverProfileID, payload)
	s.metrics.MessageRelayed(delivered > 0)
	logger.Debug("消息推送",
		zap.Uint("message_id", message.ID),
		zap.String("receiver", message.ReceiverProfileID),
		zap.Int("connections", delivered),
	)
}

// Conversation 与另一份资料的聊天记录，按时间升序
func (s *MessageService) Conversation(ctx context.Context, profileID, other string, page repository.Page) ([]model.Message, error) {
	other = strings.TrimSpace(other)
	if other == "" {
		return nil, invalidf("profile id is required")
	}
	messages, err := s.store.GetConversation(ctx, profileID, other, page)
	if err != nil {
		return nil, storageErr(err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// Delete 删除自己发送的消息
func (s *MessageService) Delete(ctx context.Context, messageID uint, senderProfileID string) error {
	ok, err := s.store.DeleteMessage(ctx, messageID, senderProfileID)
	if err != nil {
		return storageErr(err)
	}
	if !ok {
		return notFoundf("message %d", messageID)
	}
	return nil
}
