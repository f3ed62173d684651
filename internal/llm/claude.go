// Package llm talks to the Anthropic Messages API and extracts the next
// action command from the model's reply. It uses plain net/http rather
// than an SDK: the only Anthropic client in the example pack is the
// sashabaranov/go-openai-style wrapper used by Jint8888-Pocket-Omega for a
// different vendor's API, and the wire format here (a handful of JSON
// fields over one POST endpoint) doesn't earn a dependency of its own.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mrdja026/pcagent/internal/action"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-sonnet-4-5"
	maxTokens  = 500
)

type Client struct {
	apiKey string
	http   *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{apiKey: apiKey, http: &http.Client{Timeout: 60 * time.Second}}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Decision is the parsed result of one model call: the action to perform
// plus the accounting fields the history/analytics layer records.
type Decision struct {
	Action        action.Command
	InputTokens   int
	OutputTokens  int
	ElementsCount int
	PromptChars   int
}

func (c *Client) call(ctx context.Context, system, userPrompt string) (response, error) {
	body := request{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: userPrompt}},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return response{}, action.Schemaf("llm.call", "marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(raw))
	if err != nil {
		return response{}, action.Transportf("llm.call", "build request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, action.Transportf("llm.call", "POST messages: %w", err)
	}
	defer resp.Body.Close()

	raw, err = io.ReadAll(resp.Body)
	if err != nil {
		return response{}, action.Transportf("llm.call", "read response: %w", err)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return response{}, action.Schemaf("llm.call", "decode response: %w", err)
	}
	if out.Error != nil {
		return response{}, action.NewError(action.KindRemote, "llm.call", fmt.Errorf("LLM remote error (%s): %s", out.Error.Type, out.Error.Message))
	}
	return out, nil
}

// GetNextAction requests the next step given the current observation and
// history, already formatted into system/user prompt strings by the
// caller (internal/orchestrator owns prompt assembly).
func (c *Client) GetNextAction(ctx context.Context, system, userPrompt string, elementsCount int) (Decision, error) {
	resp, err := c.call(ctx, system, userPrompt)
	if err != nil {
		return Decision{}, err
	}
	text := firstText(resp)
	cmd, err := ExtractAction(text)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Action:        cmd,
		InputTokens:   resp.Usage.InputTokens,
		OutputTokens:  resp.Usage.OutputTokens,
		ElementsCount: elementsCount,
		PromptChars:   len(system) + len(userPrompt),
	}, nil
}

// GetRetryAction is GetNextAction's counterpart after a failed step: same
// call shape, different prompt content (the caller embeds the failure and
// a chunk index into userPrompt).
func (c *Client) GetRetryAction(ctx context.Context, system, userPrompt string, elementsCount int) (Decision, error) {
	return c.GetNextAction(ctx, system, userPrompt, elementsCount)
}

func firstText(resp response) string {
	for _, c := range resp.Content {
		if c.Type == "text" {
			return c.Text
		}
	}
	return ""
}
