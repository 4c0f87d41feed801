// Package search 提供了基于 DuckDuckGo HTML 页面的回退网页搜索。
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"opioid-chat-go/internal/config"
	"opioid-chat-go/pkg/log"

	"golang.org/x/net/html"
)

// Searcher defines the interface for a fallback web search.
type Searcher interface {
	// Search 返回查询的前若干条结果链接。
	Search(ctx context.Context, query string) ([]string, error)
	// Alive 探测 URL 是否返回 200。
	Alive(ctx context.Context, rawURL string) bool
}

type duckDuckGoSearcher struct {
	cfg    config.SearchConfig
	client *http.Client
}

// NewSearcher 创建一个 DuckDuckGo HTML 搜索客户端。
func NewSearcher(cfg config.SearchConfig) Searcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 10 * time.Second
	}
	return &duckDuckGoSearcher{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Search 抓取 DuckDuckGo 的 HTML 结果页并提取 result__a 链接。
func (s *duckDuckGoSearcher) Search(ctx context.Context, query string) ([]string, error) {
	reqURL := s.cfg.BaseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned non-200 status: %s", resp.Status)
	}

	topK := s.cfg.TopK
	if topK <= 0 {
		topK = 3
	}

	var links []string
	tokenizer := html.NewTokenizer(resp.Body)
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "a" {
			continue
		}
		var href, class string
		for _, attr := range token.Attr {
			switch attr.Key {
			case "href":
				href = attr.Val
			case "class":
				class = attr.Val
			}
		}
		if !strings.Contains(class, "result__a") || href == "" {
			continue
		}
		links = append(links, normalizeResultLink(href))
		if len(links) >= topK {
			break
		}
	}
	return links, nil
}

// Alive 发送 GET 并要求 200；任何错误视为不可用。
func (s *duckDuckGoSearcher) Alive(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := s.client.Do(req)
	if err != nil {
		log.Warnf("[Search] 探测 URL 失败: %s, err=%v", rawURL, err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// normalizeResultLink 处理 DuckDuckGo 的跳转链接（/l/?uddg=... 形式）与协议相对链接。
func normalizeResultLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	if u, err := url.Parse(href); err == nil {
		if uddg := u.Query().Get("uddg"); uddg != "" {
			if decoded, err := url.QueryUnescape(uddg); err == nil {
				return decoded
			}
		}
	}
	return href
}
