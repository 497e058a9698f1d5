package assistantapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bnema/assistant-console/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamURL(t *testing.T) {
	t.Parallel()

	client := Client{BaseURL: "https://assistant.example.com/gateway/"}

	endpoint, err := client.StreamURL(ports.StreamQuery{
		Question:      "What is the weather?",
		SessionID:     "session_1_abc",
		BusinessKey:   "biz-1",
		DeepReasoning: true,
	})
	require.NoError(t, err)

	parsed, err := url.Parse(endpoint)
	require.NoError(t, err)
	assert.Equal(t, "/gateway/agentApi/v1/assistant/askAssistant", parsed.Path)
	assert.Equal(t, "What is the weather?", parsed.Query().Get("question"))
	assert.Equal(t, "session_1_abc", parsed.Query().Get("sessionId"))
	assert.Equal(t, "biz-1", parsed.Query().Get("businessKey"))
	assert.Equal(t, "true", parsed.Query().Get("deepReasoning"))

	endpoint, err = client.StreamURL(ports.StreamQuery{Question: "q", SessionID: "s"})
	require.NoError(t, err)
	assert.NotContains(t, endpoint, "deepReasoning")
}

func TestStreamURLValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		client  Client
		query   ports.StreamQuery
		wantErr string
	}{
		{name: "missing base", client: Client{}, query: ports.StreamQuery{Question: "q", SessionID: "s"}, wantErr: "base url is required"},
		{name: "bad scheme", client: Client{BaseURL: "ftp://host"}, query: ports.StreamQuery{Question: "q", SessionID: "s"}, wantErr: "http or https"},
		{name: "blank question", client: Client{BaseURL: "http://host"}, query: ports.StreamQuery{Question: " ", SessionID: "s"}, wantErr: "question is required"},
		{name: "missing session", client: Client{BaseURL: "http://host"}, query: ports.StreamQuery{Question: "q"}, wantErr: "session id is required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.client.StreamURL(tt.query)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWelcome(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/agentApi/v1/assistant/welcome", r.URL.Path)
		assert.Equal(t, "biz-1", r.URL.Query().Get("businessKey"))
		_, _ = w.Write([]byte(`{"code":0,"data":{"content":"Hello, how can I help?"},"msg":"ok"}`))
	}))
	t.Cleanup(server.Close)

	text, err := Client{BaseURL: server.URL, HTTPClient: server.Client()}.Welcome(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "Hello, how can I help?", text)
}

func TestPromoteMemory(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/agentApi/v1/assistant/addProceduralMemory", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"businessKey": "biz-1", "sessionId": "session_1_abc", "msgId": "m1"}, body)

		_, _ = w.Write([]byte(`{"code":0,"data":{"success":true,"result":"saved","factMemory":"user likes sun"}}`))
	}))
	t.Cleanup(server.Close)

	result, err := Client{BaseURL: server.URL, HTTPClient: server.Client()}.PromoteMemory(context.Background(), ports.PromotionRequest{
		SessionID:   "session_1_abc",
		BusinessKey: "biz-1",
		MessageID:   "m1",
	})
	require.NoError(t, err)
	assert.Equal(t, ports.PromotionResult{Success: true, Result: "saved", FactMemory: "user likes sun"}, result)
}

func TestPromoteMemoryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantMsg  string
		wantErr  string
	}{
		{
			name:     "structured field error",
			status:   http.StatusOK,
			body:     `{"code":1,"data":[{"msgId":["Missing data for required field."],"businessKey":["x"]}],"msg":"failure"}`,
			wantCode: 1,
			wantMsg:  "businessKey: x",
		},
		{
			name:     "string list error",
			status:   http.StatusInternalServerError,
			body:     `{"code":500,"data":["message not found"],"msg":"failure"}`,
			wantCode: 500,
			wantMsg:  "message not found",
		},
		{
			name:     "msg fallback",
			status:   http.StatusOK,
			body:     `{"code":2,"data":null,"msg":"session expired"}`,
			wantCode: 2,
			wantMsg:  "session expired",
		},
		{
			name:     "generic fallback",
			status:   http.StatusOK,
			body:     `{"code":3,"data":[]}`,
			wantCode: 3,
			wantMsg:  genericErrorMessage,
		},
		{
			name:    "non 2xx without envelope",
			status:  http.StatusBadGateway,
			body:    "bad gateway",
			wantErr: "status 502: bad gateway",
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    "{",
			wantErr: "decode response envelope",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			_, err := Client{BaseURL: server.URL, HTTPClient: server.Client()}.PromoteMemory(context.Background(), ports.PromotionRequest{MessageID: "m1"})
			require.Error(t, err)

			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestPromoteMemoryReportsUnsuccessfulResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"data":{"success":false,"result":"no memory to add"}}`))
	}))
	t.Cleanup(server.Close)

	result, err := Client{BaseURL: server.URL, HTTPClient: server.Client()}.PromoteMemory(context.Background(), ports.PromotionRequest{MessageID: "m1"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "no memory to add", result.Result)
}

func TestRequestTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)

	client := Client{BaseURL: server.URL, HTTPClient: server.Client(), RequestTimeout: 20 * time.Millisecond}
	_, err := client.Welcome(context.Background(), "biz-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
