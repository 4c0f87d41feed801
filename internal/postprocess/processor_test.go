package postprocess

import (
	"context"
	"testing"

	"opioid-chat-go/internal/relevance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher 返回固定结果，并记录是否被调用。
type fakeSearcher struct {
	links    []string
	alive    map[string]bool
	searched int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]string, error) {
	f.searched++
	return f.links, nil
}

func (f *fakeSearcher) Alive(ctx context.Context, rawURL string) bool {
	return f.alive[rawURL]
}

func TestProcess_ContextURLPreserved(t *testing.T) {
	p := NewProcessor(&fakeSearcher{}, 3)
	contextURLs := map[string]bool{"https://example.org/guide.pdf": true}

	got := p.Process(context.Background(), "See https://example.org/guide.pdf for details.", contextURLs, "naloxone")
	assert.Contains(t, got.Text, "https://example.org/guide.pdf")
}

func TestProcess_TrustedDomainPreserved(t *testing.T) {
	p := NewProcessor(&fakeSearcher{}, 3)

	got := p.Process(context.Background(), "Visit https://www.samhsa.gov/find-help now.", nil, "naloxone")
	assert.Contains(t, got.Text, "https://www.samhsa.gov/find-help")
}

func TestProcess_UntrustedURLReplacedWithFallback(t *testing.T) {
	searcher := &fakeSearcher{links: []string{"https://nida.nih.gov/topics/naloxone"}}
	p := NewProcessor(searcher, 3)

	got := p.Process(context.Background(), "Read https://totally-fake.example.com/article here.", nil, "naloxone")
	assert.NotContains(t, got.Text, "totally-fake.example.com")
	assert.Contains(t, got.Text, "https://nida.nih.gov/topics/naloxone")
}

func TestProcess_NoFallbackAppendsSources(t *testing.T) {
	// 第一次搜索（URL 替换）无结果 -> 占位符；之后来源列表搜索有结果
	searcher := &fakeSearcher{
		links: nil,
		alive: map[string]bool{},
	}
	p := NewProcessor(searcher, 3)

	got := p.Process(context.Background(), "Read https://fake.example.com/a here.", nil, "naloxone")
	assert.Contains(t, got.Text, PlaceholderNoSource)
	// 无可用来源时不追加列表
	assert.NotContains(t, got.Text, "Suggested sources:")
}

func TestProcess_AppendsAliveSources(t *testing.T) {
	searcher := &fakeSearcher{
		links: []string{"https://cdc.gov/opioids", "https://dead.example.com"},
		alive: map[string]bool{"https://cdc.gov/opioids": true},
	}
	p := NewProcessor(searcher, 3)

	// 模型自己输出了占位符：追加来源列表，且只放探测到 200 的链接
	raw := "I could not find a citation. " + PlaceholderNoSource
	got := p.Process(context.Background(), raw, nil, "naloxone")
	require.Contains(t, got.Text, "Suggested sources:")
	assert.Contains(t, got.Text, "https://cdc.gov/opioids")
	assert.NotContains(t, got.Text, "https://dead.example.com")
}

func TestProcess_DenylistDiscardsAnswer(t *testing.T) {
	p := NewProcessor(&fakeSearcher{}, 3)

	got := p.Process(context.Background(), "Taylor Swift once said opioids are bad.", nil, "naloxone")
	assert.Equal(t, relevance.RefusalMessage, got.Text)
}

func TestProcess_StripsNoiseTokens(t *testing.T) {
	p := NewProcessor(&fakeSearcher{}, 3)

	got := p.Process(context.Background(), "[INST]Opioids[/INST] are **strong** medications.</s>", nil, "")
	assert.Equal(t, "Opioids are strong medications.", got.Text)
}

func TestProcess_Renderings(t *testing.T) {
	p := NewProcessor(&fakeSearcher{}, 3)

	got := p.Process(context.Background(), "Line one.\nLine two.", nil, "")
	assert.Equal(t, "Line one.<br>Line two.", got.Display)
	assert.Equal(t, "Line one. Line two.", got.Voice)
}

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("See https://cdc.gov/a and http://example.org/b.txt for more")
	assert.True(t, urls["https://cdc.gov/a"])
	assert.True(t, urls["http://example.org/b.txt"])
	assert.Len(t, urls, 2)
}
