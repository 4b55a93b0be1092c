package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceData 在线状态数据
type PresenceData struct {
	ProfileID   string    `json:"profile_id"`
	Status      string    `json:"status"` // online/offline
	LastSeen    time.Time `json:"last_seen"`
	Connections int       `json:"connections"` // 活跃连接数
}

// 在线状态相关常量
const (
	PresenceKeyPrefix  = "mm:presence:profile:" // 资料在线状态key前缀
	OnlineProfilesKey  = "mm:online:profiles"   // 在线资料集合key
	DefaultPresenceTTL = 2 * time.Minute        // 在线状态TTL（2倍心跳周期）
)

// PresenceStore 基于Redis的在线状态
type PresenceStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewPresenceStore 创建在线状态存储，ttl<=0 时使用默认值
func NewPresenceStore(client redis.UniversalClient, ttl time.Duration) *PresenceStore {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &PresenceStore{client: client, ttl: ttl, now: time.Now}
}

func presenceKey(profileID string) string {
	return PresenceKeyPrefix + profileID
}

// SetOnline 标记资料在线，connections 为当前连接数
func (p *PresenceStore) SetOnline(ctx context.Context, profileID string, connections int) error {
	data, err := json.Marshal(PresenceData{
		ProfileID:   profileID,
		Status:      "online",
		LastSeen:    p.now(),
		Connections: connections,
	})
	if err != nil {
		return fmt.Errorf("序列化在线状态失败: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, presenceKey(profileID), data, p.ttl)
	pipe.SAdd(ctx, OnlineProfilesKey, profileID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("设置在线状态失败: %w", err)
	}
	return nil
}

// SetOffline 移除在线状态
func (p *PresenceStore) SetOffline(ctx context.Context, profileID string) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, presenceKey(profileID))
	pipe.SRem(ctx, OnlineProfilesKey, profileID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("移除在线状态失败: %w", err)
	}
	return nil
}

// Refresh 刷新在线状态（延长TTL），key 已过期时返回 false
func (p *PresenceStore) Refresh(ctx context.Context, profileID string) (bool, error) {
	ok, err := p.client.Expire(ctx, presenceKey(profileID), p.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("刷新在线状态失败: %w", err)
	}
	return ok, nil
}

// IsOnline 检查资料是否在线
func (p *PresenceStore) IsOnline(ctx context.Context, profileID string) (bool, error) {
	n, err := p.client.Exists(ctx, presenceKey(profileID)).Result()
	if err != nil {
		return false, fmt.Errorf("检查在线状态失败: %w", err)
	}
	return n > 0, nil
}

// Get 获取在线状态，不在线时返回 nil
func (p *PresenceStore) Get(ctx context.Context, profileID string) (*PresenceData, error) {
	data, err := p.client.Get(ctx, presenceKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取在线状态失败: %w", err)
	}

	var presence PresenceData
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("反序列化在线状态失败: %w", err)
	}
	return &presence, nil
}

// OnlineProfiles 获取在线资料ID，顺带清理集合中已过期的成员
func (p *PresenceStore) OnlineProfiles(ctx context.Context) ([]string, error) {
	members, err := p.client.SMembers(ctx, OnlineProfilesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("获取在线列表失败: %w", err)
	}

	online := make([]string, 0, len(members))
	for _, id := range members {
		ok, err := p.IsOnline(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			// TTL 过期，从集合中移除
			p.client.SRem(ctx, OnlineProfilesKey, id)
			continue
		}
		online = append(online, id)
	}
	return online, nil
}
