package biz

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/loaddesk/loaddesk/pkg/utils/json"
)

// AnswerCache 基于 Redis 的问答结果缓存。
type AnswerCache struct {
	client    *goredis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewAnswerCache 创建缓存。
func NewAnswerCache(client *goredis.Client, ttl time.Duration, keyPrefix string) *AnswerCache {
	return &AnswerCache{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

// cacheKey 由问题与文档过滤条件派生，避免键内出现原始文本。
func (c *AnswerCache) cacheKey(question, documentID string) string {
	sum := sha256.Sum256([]byte(question + "\x00" + documentID))
	return fmt.Sprintf("%s%x", c.keyPrefix, sum)
}

// Get 返回缓存的应答；未命中返回 (nil, nil)。损坏的条目被删除并按未命中处理。
func (c *AnswerCache) Get(ctx context.Context, question, documentID string) (*Answer, error) {
	key := c.cacheKey(question, documentID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var answer Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		logger.Warnw("dropping corrupt cache entry", "key", key, "error", err)
		c.client.Del(ctx, key)
		return nil, nil
	}
	return &answer, nil
}

// Set 写入应答，失败只记日志不影响主流程。
func (c *AnswerCache) Set(ctx context.Context, question, documentID string, answer *Answer) {
	data, err := json.Marshal(answer)
	if err != nil {
		logger.Warnw("failed to marshal answer for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.cacheKey(question, documentID), data, c.ttl).Err(); err != nil {
		logger.Warnw("failed to write answer cache", "error", err)
	}
}

// Clear 删除本服务的所有缓存条目。
func (c *AnswerCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache clear failed: %w", err)
		}
	}
	return iter.Err()
}
