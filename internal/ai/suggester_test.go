package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskkeeper/internal/model"
)

func newTestSuggester(t *testing.T, handler http.HandlerFunc) (*Suggester, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	s := New(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	return s, &calls
}

func textReply(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(apiResponse{
			Type:    "message",
			Role:    "assistant",
			Content: []apiContentBlock{{Type: "text", Text: text}},
		})
	}
}

func TestSuggestSendsPromptAndReturnsText(t *testing.T) {
	var got apiRequest
	s, _ := newTestSuggester(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, messagesPath, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		textReply("  1. Call the plumber  ")(w, r)
	})

	out, err := s.Suggest(context.Background(), "Title: Fix sink, Status: Pending, Due: none")
	require.NoError(t, err)
	assert.Equal(t, "1. Call the plumber", out)

	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	assert.Equal(t, systemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.True(t, strings.HasSuffix(got.Messages[0].Content[0].Text, "Title: Fix sink, Status: Pending, Due: none"))
}

func TestSuggestSpacesCalls(t *testing.T) {
	s, calls := newTestSuggester(t, textReply("ok"))

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Suggest(context.Background(), "h")
	require.NoError(t, err)

	now = now.Add(20 * time.Second)
	_, err = s.Suggest(context.Background(), "h")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "a rejected call must not reach the network")

	now = now.Add(time.Second)
	_, err = s.SuggestNext(context.Background(), "h")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestSuggestMaps429ToRateLimited(t *testing.T) {
	s, _ := newTestSuggester(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := s.Suggest(context.Background(), "h")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestSuggestReportsAPIErrorMessage(t *testing.T) {
	s, _ := newTestSuggester(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	})

	_, err := s.Suggest(context.Background(), "h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (400): bad model")
}

func TestSuggestWithoutKey(t *testing.T) {
	s := New(Config{}, nil)
	_, err := s.Suggest(context.Background(), "h")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestBuildHistoryNewestFirst(t *testing.T) {
	due := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{Title: "old", Priority: model.PriorityLow, UpdatedAt: due.Add(-time.Hour)},
		{Title: "new", Priority: model.PriorityHigh, Completed: true, DueDate: &due, UpdatedAt: due},
	}

	assert.Equal(t,
		"Title: new, Status: Completed, Priority: high, Due: 2026-03-04\n"+
			"Title: old, Status: Pending, Priority: low, Due: none",
		BuildHistory(tasks))
}

func TestBuildHistoryCapsLength(t *testing.T) {
	tasks := make([]model.Task, MaxHistory+10)
	for i := range tasks {
		tasks[i] = model.Task{Title: "t"}
	}
	assert.Len(t, strings.Split(BuildHistory(tasks), "\n"), MaxHistory)
}
