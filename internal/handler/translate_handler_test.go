package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTranslateRouter(tr *fakeTranslate) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTranslateHandler(tr)
	r := gin.New()
	r.POST("/translate", h.Translate)
	return r
}

func TestTranslate_Success(t *testing.T) {
	r := newTranslateRouter(&fakeTranslate{})

	w := postJSON(t, r, "/translate", `{"text":"hello","target_lang":"es"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"translated_text":"[es] hello"`)
}

func TestTranslate_MissingFields(t *testing.T) {
	r := newTranslateRouter(&fakeTranslate{})

	for _, body := range []string{`{"text":"hello"}`, `{"target_lang":"es"}`, `{}`} {
		w := postJSON(t, r, "/translate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestTranslate_UpstreamFailure(t *testing.T) {
	r := newTranslateRouter(&fakeTranslate{err: errors.New("boom")})

	w := postJSON(t, r, "/translate", `{"text":"hello","target_lang":"es"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
