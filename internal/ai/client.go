package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"stockpilot-api/internal/model"
)

// Config holds settings for the hosted language model endpoint.
type Config struct {
	APIKey   string
	Model    string        // e.g. "llama-3.1-8b-instant"
	Endpoint string        // OpenAI-compatible chat completions URL
	Timeout  time.Duration // transport timeout; failures fall back to rules
}

// Client calls the Groq chat-completions endpoint and parses its strict-JSON
// analysis responses. It is the only component in the repo that talks to an
// external AI service. Any failure, from transport errors to malformed JSON,
// is returned as an error so the assistant can fall back to the rule-based
// answer library.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a new language model client.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instant"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.groq.com/openai/v1/chat/completions"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the OpenAI-compatible response body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Analyze sends the business question with its data digest to the model and
// returns the parsed unified response.
func (c *Client) Analyze(ctx context.Context, question, summary string) (*model.QueryResponse, error) {
	prompt := BuildPrompt(question, summary)

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm analysis failed: %w", err)
	}

	result, err := parseAnalysis(content)
	if err != nil {
		return nil, err
	}

	log.Printf("[AIClient] Analysis complete: confidence=%.0f", result.Confidence)
	return result, nil
}

// complete performs one chat completion and returns the raw content string.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are an expert business analyst. Always respond with valid JSON format only.",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("chat API error (%s): %s", chatResp.Error.Type, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat API returned empty response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
