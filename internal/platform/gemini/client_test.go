package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		SummaryModel: "summary-model",
		ChatModel:    "chat-model",
	})
}

func candidate(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{"content": map[string]interface{}{"parts": []interface{}{map[string]string{"text": text}}}},
		},
	})
	return string(b)
}

func TestComplete_SendsJSONRequest(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if r.URL.RawQuery != "" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, candidate(`{"summary":"ok"}`))
	})

	out, err := c.Complete(context.Background(), "Summarize", `{"summary":"string"}`)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"summary":"ok"}` {
		t.Errorf("unexpected output %q", out)
	}
	if gotPath != "/v1beta/models/summary-model:generateContent" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if gotBody.GenerationConfig == nil || gotBody.GenerationConfig.ResponseMimeType != "application/json" {
		t.Error("expected JSON response mime type")
	}
	if len(gotBody.Contents) != 1 || !strings.Contains(gotBody.Contents[0].Parts[0].Text, `{"summary":"string"}`) {
		t.Errorf("expected schema hint in prompt, got %+v", gotBody.Contents)
	}
}

func TestReply_MapsHistoryRoles(t *testing.T) {
	var gotPath string
	var gotBody generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		io.WriteString(w, candidate("Stay hydrated."))
	})

	history := []Turn{
		{Role: "user", Text: "hi"},
		{Role: "assistant", Text: "hello"},
		{Role: "user", Text: "  "},
	}
	out, err := c.Reply(context.Background(), "You are a recovery assistant.", history, "any tips?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if out != "Stay hydrated." {
		t.Errorf("unexpected reply %q", out)
	}
	if gotPath != "/v1beta/models/chat-model:generateContent" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotBody.SystemInstruction == nil {
		t.Fatal("expected system instruction")
	}
	if len(gotBody.Contents) != 3 {
		t.Fatalf("expected blank turn dropped and message appended, got %d contents", len(gotBody.Contents))
	}
	if gotBody.Contents[1].Role != "model" || gotBody.Contents[2].Parts[0].Text != "any tips?" {
		t.Errorf("unexpected contents %+v", gotBody.Contents)
	}
}

func TestGenerate_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := c.Complete(context.Background(), "x", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 429 || apiErr.Message != "quota exceeded" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestGenerate_NoCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})
	if _, err := c.Complete(context.Background(), "x", ""); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerate_NotConfigured(t *testing.T) {
	c := New(Config{})
	if c.Configured() {
		t.Fatal("expected unconfigured client")
	}
	if _, err := c.Reply(context.Background(), "", nil, "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerate_TransportErrorOmitsKey(t *testing.T) {
	c := New(Config{APIKey: "SECRET-KEY-123", BaseURL: "http://127.0.0.1:1", SummaryModel: "m"})
	_, err := c.Complete(context.Background(), "x", "")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Errorf("api key leaked into error: %v", err)
	}
}
