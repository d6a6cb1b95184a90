package vision

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"leaflet/leaflet"

	"go.uber.org/zap/zaptest"
)

const modelAnswer = "```json\n" + `[
  {"id": 40, "product_name": "Strawberries", "price": "$2.49", "unit": "250g Pack", "category": "Fresh Produce", "special_offer": "Super Savers", "additional_info": ""},
  {"product_name": "Sweet Corn Cobs", "price": "$3.99", "unit": "4 pack", "category": "Fresh Produce", "special_offer": "", "additional_info": "Fresh corn"}
]` + "\n```"

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaflet.png")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	if err := os.WriteFile(path, png, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func chatCompletion(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 10, "total_tokens": 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	return NewClient(Settings{
		APIKey:     "test-key",
		Endpoint:   endpoint,
		Deployment: "gpt-4-vision",
		APIVersion: "2024-08-01-preview",
	}, nil, zaptest.NewLogger(t))
}

func TestExtract_Success(t *testing.T) {
	var requestBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/openai/deployments/gpt-4-vision/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api-version"); got != "2024-08-01-preview" {
			t.Errorf("api-version = %q", got)
		}
		if got := r.Header.Get("api-key"); got != "test-key" {
			t.Errorf("api-key header = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		requestBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		w.Write(chatCompletion(t, modelAnswer))
	}))
	defer server.Close()

	outcome, err := newTestClient(t, server.URL).Extract(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.OK() {
		t.Fatalf("expected success, got %s: %v", outcome.Status, outcome.Err)
	}
	if len(outcome.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(outcome.Products))
	}
	for i, p := range outcome.Products {
		if p.ID != i {
			t.Errorf("product %d has id %d", i, p.ID)
		}
	}
	if name, _ := outcome.Products[1].Field(leaflet.FieldProductName); name != "Sweet Corn Cobs" {
		t.Errorf("unexpected product %+v", outcome.Products[1])
	}

	for _, want := range []string{"image_url", "data:image/png;base64,", "product_name", "left to right, top to bottom"} {
		if !strings.Contains(requestBody, want) {
			t.Errorf("request body does not contain %q", want)
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(requestBody), &fields); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if got := string(fields["max_tokens"]); got != "4000" {
		t.Errorf("max_tokens = %q, want 4000", got)
	}
	if got := string(fields["temperature"]); got != "0.1" {
		t.Errorf("temperature = %q, want 0.1", got)
	}
	if _, ok := fields["max_completion_tokens"]; ok {
		t.Error("request must not send max_completion_tokens")
	}
}

func TestExtract_Failures(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     func(t *testing.T) []byte
		expected Status
		errIs    error
	}{
		{
			name:     "ServerError",
			status:   http.StatusInternalServerError,
			body:     func(t *testing.T) []byte { return []byte(`{"error":{"message":"boom"}}`) },
			expected: StatusUpstreamError,
			errIs:    ErrUpstream,
		},
		{
			name:     "Unauthorized",
			status:   http.StatusUnauthorized,
			body:     func(t *testing.T) []byte { return []byte(`{"error":{"message":"bad key"}}`) },
			expected: StatusUpstreamError,
			errIs:    ErrUpstream,
		},
		{
			name:     "ProseAnswer",
			status:   http.StatusOK,
			body:     func(t *testing.T) []byte { return chatCompletion(t, "Sorry, I cannot read this leaflet.") },
			expected: StatusParseError,
			errIs:    ErrParse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write(tc.body(t))
			}))
			defer server.Close()

			outcome, err := newTestClient(t, server.URL).Extract(context.Background(), writeImage(t))
			if err != nil {
				t.Fatalf("remote failures must not be returned as errors: %v", err)
			}
			if outcome.Status != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, outcome.Status)
			}
			if !errors.Is(outcome.Err, tc.errIs) {
				t.Errorf("expected error wrapping %v, got %v", tc.errIs, outcome.Err)
			}
			if outcome.Products != nil {
				t.Errorf("failed outcome should carry no products, got %d", len(outcome.Products))
			}
		})
	}
}

func TestExtract_ParseErrorKeepsRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatCompletion(t, `[{"product_name": "Strawberries"`))
	}))
	defer server.Close()

	outcome, _ := newTestClient(t, server.URL).Extract(context.Background(), writeImage(t))
	if outcome.Raw != `[{"product_name": "Strawberries"` {
		t.Errorf("unexpected raw content %q", outcome.Raw)
	}
}

func TestExtract_NotConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(Settings{Endpoint: server.URL, Deployment: "gpt-4-vision"}, nil, zaptest.NewLogger(t))
	outcome, err := client.Extract(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusUpstreamError {
		t.Errorf("expected upstream error, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", outcome.Err)
	}
	if calls.Load() != 0 {
		t.Errorf("no request expected without credentials, got %d", calls.Load())
	}
}

func TestExtract_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	outcome, err := newTestClient(t, endpoint).Extract(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != StatusUpstreamError {
		t.Errorf("expected upstream error, got %s", outcome.Status)
	}
}

func TestExtract_MissingImage(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	_, err := client.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
