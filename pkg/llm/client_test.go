package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"opioid-chat-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) Client {
	return NewClient(config.LLMConfig{
		BaseURL:        baseURL,
		APIKey:         "test-token",
		Model:          "meta-llama/Llama-3-8b-chat-hf",
		TimeoutSeconds: 2,
	})
}

func TestComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Naloxone reverses opioid overdoses."}}]}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	answer, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "What is naloxone?"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Naloxone reverses opioid overdoses.", answer)
}

func TestComplete_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-200")
}

func TestComplete_TransportError(t *testing.T) {
	// 端口已关闭的地址
	c := testClient("http://127.0.0.1:1")
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call chat api")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
}

// chunkCollector 收集流式分块。
type chunkCollector struct {
	chunks []string
}

func (c *chunkCollector) WriteMessage(messageType int, data []byte) error {
	c.chunks = append(c.chunks, string(data))
	return nil
}

func TestStreamChat_ForwardsChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Nalo\"}}]}\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"xone\"}}]}\n")
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	collector := &chunkCollector{}
	err := c.StreamChat(context.Background(), []Message{{Role: "user", Content: "q"}}, nil, collector)
	require.NoError(t, err)
	assert.Equal(t, "Naloxone", strings.Join(collector.chunks, ""))
}
