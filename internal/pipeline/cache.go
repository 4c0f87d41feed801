// Package pipeline 包含后台抓取刷新任务及其缓存。
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"opioid-chat-go/pkg/crawler"

	"github.com/go-redis/redis/v8"
)

// Redis 中抓取缓存使用的键。
const (
	crawlTextKey = "crawl:context"
	crawlURLsKey = "crawl:urls"
)

// CrawlCache 把最近一次抓取结果放在 Redis 里，读写两侧解耦：
// 刷新任务写入，请求路径只读。
type CrawlCache struct {
	redisClient *redis.Client
}

// NewCrawlCache 创建一个抓取缓存。
func NewCrawlCache(redisClient *redis.Client) *CrawlCache {
	return &CrawlCache{redisClient: redisClient}
}

// Store 覆盖写入最新的抓取结果。不设过期时间，旧数据由下次刷新覆盖。
func (c *CrawlCache) Store(ctx context.Context, result crawler.Result) error {
	urlsJSON, err := json.Marshal(result.URLs)
	if err != nil {
		return fmt.Errorf("failed to marshal crawl urls: %w", err)
	}
	if err := c.redisClient.Set(ctx, crawlTextKey, result.Text, 0).Err(); err != nil {
		return fmt.Errorf("failed to store crawl text: %w", err)
	}
	if err := c.redisClient.Set(ctx, crawlURLsKey, urlsJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to store crawl urls: %w", err)
	}
	return nil
}

// Load 读取最近一次抓取结果；尚未刷新过时返回空结果。
func (c *CrawlCache) Load(ctx context.Context) (crawler.Result, error) {
	text, err := c.redisClient.Get(ctx, crawlTextKey).Result()
	if err == redis.Nil {
		return crawler.Result{}, nil
	}
	if err != nil {
		return crawler.Result{}, fmt.Errorf("failed to load crawl text: %w", err)
	}

	var urls []string
	urlsJSON, err := c.redisClient.Get(ctx, crawlURLsKey).Result()
	if err != nil && err != redis.Nil {
		return crawler.Result{}, fmt.Errorf("failed to load crawl urls: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal([]byte(urlsJSON), &urls); err != nil {
			return crawler.Result{}, fmt.Errorf("failed to unmarshal crawl urls: %w", err)
		}
	}
	return crawler.Result{Text: text, URLs: urls}, nil
}
