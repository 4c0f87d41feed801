package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"opioid-chat-go/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFeedbackService 是内存版反馈服务。
type fakeFeedbackService struct {
	secret    string
	recordErr error
	listErr   error
	records   []model.Feedback
}

func (f *fakeFeedbackService) Record(userID string, rating int, comments string) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, model.Feedback{UserID: userID, Rating: rating, Comments: comments})
	return nil
}

func (f *fakeFeedbackService) ListAll() ([]model.Feedback, error) {
	return f.records, f.listErr
}

func (f *fakeFeedbackService) VerifyKey(key string) bool {
	return key == f.secret
}

func newFeedbackRouter(svc *fakeFeedbackService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFeedbackHandler(svc)
	r := gin.New()
	r.POST("/feedback", h.Submit)
	r.GET("/view_feedback", h.View)
	return r
}

func postForm(t *testing.T, r *gin.Engine, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmit_Success(t *testing.T) {
	svc := &fakeFeedbackService{secret: "k"}
	r := newFeedbackRouter(svc)

	w := postForm(t, r, url.Values{"feedback": {"very helpful"}, "rate": {"5"}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thank you for your feedback!")
	require.Len(t, svc.records, 1)
	assert.Equal(t, 5, svc.records[0].Rating)
	assert.Equal(t, "very helpful", svc.records[0].Comments)
}

func TestSubmit_BadRating(t *testing.T) {
	svc := &fakeFeedbackService{secret: "k"}
	r := newFeedbackRouter(svc)

	w := postForm(t, r, url.Values{"feedback": {"x"}, "rate": {"five"}})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.records)
}

func TestSubmit_StoreFailure(t *testing.T) {
	svc := &fakeFeedbackService{secret: "k", recordErr: errors.New("db down")}
	r := newFeedbackRouter(svc)

	w := postForm(t, r, url.Values{"feedback": {"x"}, "rate": {"3"}})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "could not record your feedback")
}

func TestView_WrongKey(t *testing.T) {
	svc := &fakeFeedbackService{secret: "right-key"}
	r := newFeedbackRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view_feedback?key=wrong", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Unauthorized access")
}

func TestView_ListsFeedback(t *testing.T) {
	svc := &fakeFeedbackService{secret: "right-key"}
	require.NoError(t, svc.Record("1.2.3.4", 4, "good bot"))
	r := newFeedbackRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view_feedback?key=right-key", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "good bot")
}
