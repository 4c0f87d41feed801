// Package postprocess 对模型返回的原始文本做清理、URL 校验与渲染。
package postprocess

import (
	"context"
	"regexp"
	"strings"

	"opioid-chat-go/internal/relevance"
	"opioid-chat-go/pkg/log"
)

// FallbackSearcher 是回退网页搜索的窄接口，由 pkg/search 满足。
type FallbackSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
	Alive(ctx context.Context, rawURL string) bool
}

// PlaceholderNoSource 标记未能找到可信来源的 URL 位置。
const PlaceholderNoSource = "[No valid source found]"

// trustedDomains 是可信的政府/健康域名，命中即保留原样。
var trustedDomains = []string{
	"nida.nih.gov",
	"samhsa.gov",
	"cdc.gov",
	"dea.gov",
	"nih.gov",
}

// noiseTokens 是模型输出中需要剔除的占位符序列。
var noiseTokens = []string{
	"</s>",
	"[INST]",
	"[/INST]",
	"<<SYS>>",
	"<</SYS>>",
	"*",
}

// deniedEntities 出现在最终文本中时说明模型大概率已经跑题，整条回答作废。
var deniedEntities = []string{
	"taylor swift",
	"beyonce",
	"kim kardashian",
	"justin bieber",
	"lebron james",
	"cristiano ronaldo",
	"lionel messi",
	"tom cruise",
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// Rendered 是同一条原始回答处理后的规范文本及其两种呈现形式。
type Rendered struct {
	// Text 是清理与 URL 校验之后的规范文本，写入对话历史用。
	Text string
	// Display 将换行转成 <br>，用于网页展示。
	Display string
	// Voice 将所有空白压平为单个空格，用于语音朗读。
	Voice string
}

// Processor 执行回答的后处理流水线。
type Processor struct {
	searcher FallbackSearcher
	topK     int
}

// NewProcessor 创建一个后处理器。topK 控制回退来源列表的条数。
func NewProcessor(searcher FallbackSearcher, topK int) *Processor {
	if topK <= 0 {
		topK = 3
	}
	return &Processor{searcher: searcher, topK: topK}
}

// Process 依次执行：噪声剔除 -> URL 校验/替换 -> 回退来源列表 -> 实体黑名单。
// contextURLs 是在文档/抓取上下文中逐字出现过的 URL 集合。
func (p *Processor) Process(ctx context.Context, raw string, contextURLs map[string]bool, query string) Rendered {
	text := stripNoise(raw)
	text = p.filterURLs(ctx, text, contextURLs, query)
	text = p.appendFallbackSources(ctx, text, query)

	if hitsDenylist(text) {
		log.Warnf("[Postprocess] 回答命中实体黑名单，整条替换为拒答")
		text = relevance.RefusalMessage
	}

	return render(text)
}

// stripNoise 删除已知的占位符与强调用的星号。
func stripNoise(text string) string {
	for _, token := range noiseTokens {
		text = strings.ReplaceAll(text, token, "")
	}
	return strings.TrimSpace(text)
}

// filterURLs 校验文本中的每个 URL：上下文逐字出现的保留，可信域名的保留，
// 其余用回退搜索的首条结果替换；搜索无结果时用占位符替换。
func (p *Processor) filterURLs(ctx context.Context, text string, contextURLs map[string]bool, query string) string {
	found := urlPattern.FindAllString(text, -1)
	if len(found) == 0 {
		return text
	}

	// 每次处理最多做一次回退搜索
	var fallbackLinks []string
	fallbackDone := false

	for _, u := range found {
		if contextURLs[u] {
			continue
		}
		if trusted(u) {
			continue
		}
		if !fallbackDone {
			fallbackDone = true
			if p.searcher != nil && query != "" {
				links, err := p.searcher.Search(ctx, query)
				if err != nil {
					log.Warnf("[Postprocess] 回退搜索失败: %v", err)
				} else {
					fallbackLinks = links
				}
			}
		}
		if len(fallbackLinks) > 0 {
			text = strings.ReplaceAll(text, u, fallbackLinks[0])
		} else {
			text = strings.ReplaceAll(text, u, PlaceholderNoSource)
		}
	}
	return text
}

// appendFallbackSources 在占位符仍然存在时，追加一个带标签的可用来源列表。
// 列表里只放探测到 200 的链接。
func (p *Processor) appendFallbackSources(ctx context.Context, text, query string) string {
	if !strings.Contains(text, PlaceholderNoSource) {
		return text
	}
	if p.searcher == nil || query == "" {
		return text
	}

	links, err := p.searcher.Search(ctx, query)
	if err != nil {
		log.Warnf("[Postprocess] 回退来源搜索失败: %v", err)
		return text
	}

	var alive []string
	for _, link := range links {
		if len(alive) >= p.topK {
			break
		}
		if p.searcher.Alive(ctx, link) {
			alive = append(alive, link)
		}
	}
	if len(alive) == 0 {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\nSuggested sources:\n")
	for _, link := range alive {
		sb.WriteString("- ")
		sb.WriteString(link)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// trusted 判断 URL 是否属于可信域名。
func trusted(u string) bool {
	lower := strings.ToLower(u)
	for _, domain := range trustedDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// hitsDenylist 检查最终文本是否包含黑名单实体。
func hitsDenylist(text string) bool {
	lower := strings.ToLower(text)
	for _, name := range deniedEntities {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// render 由同一份文本生成展示与语音两种形式。
func render(text string) Rendered {
	display := strings.ReplaceAll(text, "\n", "<br>")
	voice := strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	return Rendered{Text: text, Display: display, Voice: voice}
}

// ExtractURLs 返回文本中出现的所有 URL 集合，用于收集上下文里的合法来源。
func ExtractURLs(text string) map[string]bool {
	urls := make(map[string]bool)
	for _, u := range urlPattern.FindAllString(text, -1) {
		urls[u] = true
	}
	return urls
}
