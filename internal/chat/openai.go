// Package chat is the assistant boundary: submitted text goes out as a
// streamed chat completion, tool calls are executed against the extraction
// boundary, and the reply streams back delta by delta.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"voicedesk/internal/ports"
)

const researchToolName = "research_website"

const defaultSystemPrompt = "You are a helpful voice assistant. Answers are read aloud in a chat UI, so keep them conversational and concise."

// Config controls the assistant client.
type Config struct {
	Model        string
	SystemPrompt string
}

// Client implements ports.Assistant on the OpenAI chat completion API with
// streaming and a single research tool.
type Client struct {
	api       *openai.Client
	model     string
	extractor ports.Extractor
	logger    *log.Logger

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

func NewClient(apiKey string, cfg Config, extractor ports.Extractor, logger *log.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		api:       openai.NewClient(apiKey),
		model:     cfg.Model,
		extractor: extractor,
		logger:    logger,
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: cfg.SystemPrompt},
		},
	}
}

// Submit sends input as the next user turn and streams the reply through
// onDelta. When the model requests the research tool, the tool runs and a
// second streamed turn carries the grounded answer.
func (c *Client) Submit(ctx context.Context, input string, onDelta func(string)) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("nothing to submit")
	}

	c.mu.Lock()
	c.history = append(c.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})
	messages := append([]openai.ChatCompletionMessage(nil), c.history...)
	c.mu.Unlock()

	text, calls, err := c.streamOnce(ctx, messages, onDelta)
	if err != nil {
		return "", err
	}

	if len(calls) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   text,
			ToolCalls: calls,
		})
		for _, call := range calls {
			result := c.executeTool(ctx, call)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
		text, _, err = c.streamOnce(ctx, messages, onDelta)
		if err != nil {
			return "", err
		}
	}

	c.mu.Lock()
	c.history = append(c.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: text,
	})
	c.mu.Unlock()
	return text, nil
}

func (c *Client) streamOnce(ctx context.Context, messages []openai.ChatCompletionMessage, onDelta func(string)) (string, []openai.ToolCall, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
		Tools:    c.tools(),
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start completion stream: %w", err)
	}
	defer stream.Close()

	var text strings.Builder
	var calls []openai.ToolCall
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("completion stream failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta
		if delta.Content != "" {
			text.WriteString(delta.Content)
			if onDelta != nil {
				onDelta(delta.Content)
			}
		}
		calls = accumulateToolCalls(calls, delta.ToolCalls)
	}
	return text.String(), calls, nil
}

// accumulateToolCalls merges streamed tool-call fragments: the first fragment
// for an index carries id and name, later ones append argument text.
func accumulateToolCalls(calls []openai.ToolCall, deltas []openai.ToolCall) []openai.ToolCall {
	for _, delta := range deltas {
		idx := len(calls)
		if delta.Index != nil {
			idx = *delta.Index
		}
		for len(calls) <= idx {
			calls = append(calls, openai.ToolCall{Type: openai.ToolTypeFunction})
		}
		if delta.ID != "" {
			calls[idx].ID = delta.ID
		}
		if delta.Function.Name != "" {
			calls[idx].Function.Name = delta.Function.Name
		}
		calls[idx].Function.Arguments += delta.Function.Arguments
	}
	return calls
}

func (c *Client) tools() []openai.Tool {
	if c.extractor == nil {
		return nil
	}
	return []openai.Tool{{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        researchToolName,
			Description: "Research the configured company website and return extracted information when the user asks about it.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {
						"type": "string",
						"description": "Specific aspect to research (features, use cases, pricing, etc.)"
					}
				}
			}`),
		},
	}}
}

func (c *Client) executeTool(ctx context.Context, call openai.ToolCall) string {
	if call.Function.Name != researchToolName || c.extractor == nil {
		return fmt.Sprintf(`{"error":"unknown tool %q"}`, call.Function.Name)
	}

	var args struct {
		Query string `json:"query"`
	}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			c.logger.Printf("chat: malformed tool arguments: %v", err)
		}
	}

	result, err := c.extractor.Extract(ctx, args.Query)
	if err != nil {
		c.logger.Printf("chat: research tool failed: %v", err)
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return result
}
