// Package translate 提供了一个调用外部翻译服务的客户端。
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"opioid-chat-go/internal/config"
	"opioid-chat-go/pkg/log"
)

// Client defines the interface for a translation client.
type Client interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type libreTranslateClient struct {
	cfg    config.TranslateConfig
	client *http.Client
}

// NewClient 创建一个 LibreTranslate 兼容的翻译客户端。
func NewClient(cfg config.TranslateConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 15 * time.Second
	}
	return &libreTranslateClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate 将 text 翻译为 targetLang，源语言自动检测。
func (c *libreTranslateClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	reqBody := translateRequest{
		Q:      text,
		Source: "auto",
		Target: targetLang,
		APIKey: c.cfg.APIKey,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/translate", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[TranslateClient] 调用翻译服务失败, error: %v", err)
		return "", fmt.Errorf("failed to call translate api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[TranslateClient] 翻译服务返回非 200 状态码: %s", resp.Status)
		return "", fmt.Errorf("translate api returned non-200 status: %s", resp.Status)
	}

	var translateResp translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return "", fmt.Errorf("failed to decode translate response: %w", err)
	}
	return translateResp.TranslatedText, nil
}
