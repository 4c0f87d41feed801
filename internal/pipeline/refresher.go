package pipeline

import (
	"context"
	"time"

	"opioid-chat-go/internal/config"
	"opioid-chat-go/pkg/crawler"
	"opioid-chat-go/pkg/log"
)

// Refresher 周期性地执行抓取并把结果写入缓存，
// 把"抓取内容的新鲜度"与单次请求的延迟解耦。
type Refresher struct {
	crawler *crawler.Crawler
	cache   *CrawlCache
	cfg     config.CrawlerConfig
}

// NewRefresher 创建一个后台刷新任务。
func NewRefresher(c *crawler.Crawler, cache *CrawlCache, cfg config.CrawlerConfig) *Refresher {
	return &Refresher{crawler: c, cache: cache, cfg: cfg}
}

// Start 立即执行一次刷新，然后按配置的间隔周期执行，直到 ctx 取消。
// 设计为在独立 goroutine 中运行。
func (r *Refresher) Start(ctx context.Context) {
	if len(r.cfg.Seeds) == 0 {
		log.Info("crawl refresher: no seed urls configured, skipping")
		return
	}

	interval := time.Duration(r.cfg.RefreshMinutes) * time.Minute
	if r.cfg.RefreshMinutes <= 0 {
		interval = 30 * time.Minute
	}

	r.refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("crawl refresher: stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	start := time.Now()
	result := r.crawler.Crawl(ctx, r.cfg.Seeds, r.cfg.MaxPages)
	if err := r.cache.Store(ctx, result); err != nil {
		log.Error("crawl refresher: failed to store result", err)
		return
	}
	log.Infow("crawl refresher: refreshed",
		"pages", len(result.URLs),
		"chars", len(result.Text),
		"elapsed", time.Since(start).String(),
	)
}
