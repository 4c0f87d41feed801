// Package crawler 实现了一个有界的同域广度优先网页抓取器。
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"opioid-chat-go/internal/config"
	"opioid-chat-go/pkg/log"

	"golang.org/x/net/html"
)

// Result 是一次抓取的产物：拼接后的正文与实际访问过的页面 URL。
type Result struct {
	Text string
	URLs []string
}

// ContentGate 判断页面正文是否值得纳入上下文；返回 false 时丢弃该页正文，
// 但仍然继续沿着它的链接抓取。
type ContentGate func(pageText string) bool

// Crawler 按种子 URL 抓取同域页面并提取正文。
type Crawler struct {
	cfg    config.CrawlerConfig
	client *http.Client
	gate   ContentGate
}

// New 创建一个抓取器。gate 可以为 nil，表示接受所有页面。
func New(cfg config.CrawlerConfig, gate ContentGate) *Crawler {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 10 * time.Second
	}
	return &Crawler{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		gate:   gate,
	}
}

// page 是单个页面的抓取结果。
type page struct {
	url   string
	text  string
	links []string
	err   error
}

// Crawl 从每个种子出发做 FIFO 广度优先遍历，全局共享已访问集合，
// 最多访问 maxPages 个不同的 URL。单页错误只记录日志，不中断抓取。
func (c *Crawler) Crawl(ctx context.Context, seeds []string, maxPages int) Result {
	batchSize := c.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	delay := time.Duration(c.cfg.DelayMs) * time.Millisecond

	visited := make(map[string]bool)
	var queue []string
	for _, seed := range seeds {
		queue = append(queue, seed)
	}

	var texts []string
	var visitedURLs []string

	for len(queue) > 0 && len(visited) < maxPages {
		// 取出一个批次，批内并发抓取，批间等待固定延迟
		var batch []string
		for len(queue) > 0 && len(batch) < batchSize && len(visited) < maxPages {
			next := queue[0]
			queue = queue[1:]
			if visited[next] {
				continue
			}
			visited[next] = true
			batch = append(batch, next)
		}
		if len(batch) == 0 {
			continue
		}

		pages := c.fetchBatch(ctx, batch)
		for _, p := range pages {
			if p.err != nil {
				log.Warnf("[Crawler] 抓取页面失败: %s, err=%v", p.url, p.err)
				continue
			}
			visitedURLs = append(visitedURLs, p.url)
			if p.text != "" && (c.gate == nil || c.gate(p.text)) {
				texts = append(texts, p.text)
			}
			for _, link := range p.links {
				if !visited[link] {
					queue = append(queue, link)
				}
			}
		}

		if len(queue) > 0 && len(visited) < maxPages && delay > 0 {
			select {
			case <-ctx.Done():
				return Result{Text: strings.Join(texts, "\n\n"), URLs: visitedURLs}
			case <-time.After(delay):
			}
		}
	}

	return Result{Text: strings.Join(texts, "\n\n"), URLs: visitedURLs}
}

// fetchBatch 并发抓取一个批次的页面并按序返回。
func (c *Crawler) fetchBatch(ctx context.Context, urls []string) []page {
	pages := make([]page, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			pages[i] = c.fetchPage(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return pages
}

// fetchPage 抓取单个页面，提取正文与同域链接。
func (c *Crawler) fetchPage(ctx context.Context, pageURL string) page {
	p := page{url: pageURL}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		p.err = fmt.Errorf("failed to create request: %w", err)
		return p
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		p.err = fmt.Errorf("failed to fetch: %w", err)
		return p
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.err = fmt.Errorf("non-200 status: %s", resp.Status)
		return p
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		p.err = fmt.Errorf("bad page url: %w", err)
		return p
	}

	text, links, err := parsePage(resp.Body, base)
	if err != nil {
		p.err = fmt.Errorf("failed to parse page: %w", err)
		return p
	}
	p.text = text
	p.links = links
	return p
}

// 被认为承载正文的标签。
var textTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "li": true,
}

// parsePage 遍历 HTML 树，收集正文标签的文本与同域的 a[href] 链接。
func parsePage(body io.Reader, base *url.URL) (string, []string, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return "", nil, err
	}

	var texts []string
	var links []string
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if textTags[n.Data] {
				t := strings.TrimSpace(nodeText(n))
				if t != "" {
					texts = append(texts, t)
				}
			}
			if n.Data == "a" {
				for _, attr := range n.Attr {
					if attr.Key != "href" {
						continue
					}
					link, ok := resolveSameDomain(base, attr.Val)
					if ok && !seen[link] {
						seen[link] = true
						links = append(links, link)
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return strings.Join(texts, "\n"), links, nil
}

// nodeText 拼接一个节点下的所有文本子节点。
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// resolveSameDomain 将 href 解析为绝对地址，并要求与 base 同域。
// 片段与非 http(s) 协议被丢弃。
func resolveSameDomain(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host != base.Host {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}
