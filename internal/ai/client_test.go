package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// chatServer returns a test server that responds with the given content
// wrapped in an OpenAI-compatible completion body.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Missing bearer auth, got %q", r.Header.Get("Authorization"))
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Request body not JSON: %v", err)
		}
		if req.Temperature != 0.1 {
			t.Errorf("Expected temperature 0.1, got %v", req.Temperature)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("Expected system+user messages, got %d messages", len(req.Messages))
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(endpoint string) *Client {
	return NewClient(Config{
		APIKey:   "test-key",
		Endpoint: endpoint,
		Timeout:  2 * time.Second,
	})
}

func TestAnalyzeParsesStrictJSON(t *testing.T) {
	srv := chatServer(t, `{
		"answer": "Revenue is growing steadily.",
		"insights": ["Sales up 12% month over month"],
		"recommendations": ["Restock the top seller"],
		"data": [{"label": "Revenue", "value": 4250.5}, {"label": "Orders", "value": 31}],
		"confidence": 88,
		"sources": ["sales_data"]
	}`)
	defer srv.Close()

	resp, err := testClient(srv.URL).Analyze(context.Background(), "How is revenue?", "digest")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if resp.Answer != "Revenue is growing steadily." {
		t.Errorf("Wrong answer: %q", resp.Answer)
	}
	if resp.Confidence != 88 {
		t.Errorf("Expected confidence 88, got %.0f", resp.Confidence)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("Expected 2 data points, got %d", len(resp.Data))
	}
	if resp.Data[0].Value != "4250.50" {
		t.Errorf("Float value not normalized: %q", resp.Data[0].Value)
	}
	if resp.Data[1].Value != "31" {
		t.Errorf("Integer value not normalized: %q", resp.Data[1].Value)
	}
}

func TestAnalyzeStripsMarkdownFences(t *testing.T) {
	srv := chatServer(t, "```json\n{\"answer\": \"Fenced but fine.\", \"confidence\": 75}\n```")
	defer srv.Close()

	resp, err := testClient(srv.URL).Analyze(context.Background(), "q", "s")
	if err != nil {
		t.Fatalf("Analyze failed on fenced JSON: %v", err)
	}
	if resp.Answer != "Fenced but fine." {
		t.Errorf("Wrong answer: %q", resp.Answer)
	}
}

func TestAnalyzeAppliesDefaults(t *testing.T) {
	srv := chatServer(t, `{"insights": ["something"]}`)
	defer srv.Close()

	resp, err := testClient(srv.URL).Analyze(context.Background(), "q", "s")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if resp.Answer == "" {
		t.Error("Expected fallback answer for missing field")
	}
	if resp.Confidence != 75 {
		t.Errorf("Expected default confidence 75, got %.0f", resp.Confidence)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "business_data" {
		t.Errorf("Expected default sources, got %v", resp.Sources)
	}
}

func TestAnalyzeNonJSONContentFails(t *testing.T) {
	srv := chatServer(t, "Here is my analysis: things look good!")
	defer srv.Close()

	if _, err := testClient(srv.URL).Analyze(context.Background(), "q", "s"); err == nil {
		t.Error("Expected error for prose content")
	}
}

func TestAnalyzeServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Analyze(context.Background(), "q", "s")
	if err == nil {
		t.Fatal("Expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("Error should carry status code, got %v", err)
	}
}

func TestAnalyzeAPIErrorPayloadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key", "type": "auth_error"},
		})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Analyze(context.Background(), "q", "s")
	if err == nil {
		t.Fatal("Expected error for API error payload")
	}
	if !strings.Contains(err.Error(), "auth_error") {
		t.Errorf("Error should carry API error type, got %v", err)
	}
}

func TestAnalyzeEmptyChoicesFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Analyze(context.Background(), "q", "s"); err == nil {
		t.Error("Expected error for empty choices")
	}
}

func TestBuildPromptEmbedsQuestionAndSummary(t *testing.T) {
	prompt := BuildPrompt("What sells best?", "INVENTORY OVERVIEW:\n- Total Items: 3")

	if !strings.Contains(prompt, "What sells best?") {
		t.Error("Prompt missing the question")
	}
	if !strings.Contains(prompt, "Total Items: 3") {
		t.Error("Prompt missing the data digest")
	}
	if !strings.Contains(prompt, `"confidence"`) {
		t.Error("Prompt missing the response schema")
	}
}
