// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"opioid-chat-go/internal/config"
	"opioid-chat-go/internal/pipeline"
	"opioid-chat-go/internal/postprocess"
	"opioid-chat-go/pkg/extract"
	"opioid-chat-go/pkg/log"
)

// ContextService 提供注入到系统提示中的 grounding 上下文。
type ContextService interface {
	// GroundingContext 返回截断后的上下文文本，以及其中出现过的合法来源 URL 集合。
	GroundingContext(ctx context.Context) (string, map[string]bool)
}

type contextService struct {
	cfg        config.ContextConfig
	crawlCache *pipeline.CrawlCache

	// 文档上下文在首个问题时加载一次，之后进程生命周期内不变
	once    sync.Once
	docText string
}

// NewContextService 创建一个新的 ContextService 实例。crawlCache 可以为 nil。
func NewContextService(cfg config.ContextConfig, crawlCache *pipeline.CrawlCache) ContextService {
	return &contextService{cfg: cfg, crawlCache: crawlCache}
}

// GroundingContext 实现 ContextService。文档文本与抓取缓存拼接后按字符预算截断。
func (s *contextService) GroundingContext(ctx context.Context) (string, map[string]bool) {
	s.once.Do(func() {
		s.docText = loadFolder(s.cfg.Folder)
	})

	urls := postprocess.ExtractURLs(s.docText)
	parts := []string{}
	if s.docText != "" {
		parts = append(parts, s.docText)
	}

	if s.crawlCache != nil {
		crawled, err := s.crawlCache.Load(ctx)
		if err != nil {
			log.Error("failed to load crawl cache", err)
		} else {
			if crawled.Text != "" {
				parts = append(parts, crawled.Text)
			}
			for u := range postprocess.ExtractURLs(crawled.Text) {
				urls[u] = true
			}
			// 抓取过的页面地址本身也是合法来源
			for _, u := range crawled.URLs {
				urls[u] = true
			}
		}
	}

	return truncate(strings.Join(parts, "\n\n"), s.cfg.MaxChars), urls
}

// loadFolder 按文件枚举顺序拼接目录下所有受支持文档的文本。
// 单文件失败只记录并跳过，加载永不向调用方报错。
func loadFolder(folder string) string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		log.Warnf("document folder %q not readable: %v", folder, err)
		return ""
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if extract.Supported(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		text, err := extract.ExtractFile(filepath.Join(folder, name))
		if err != nil {
			log.Warnf("failed to extract %q, skipping: %v", name, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	log.Infof("document context loaded: %d files from %q", len(parts), folder)
	return strings.Join(parts, "\n\n")
}

// truncate 按字符数截断，保证上下文不超过预算。
func truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
