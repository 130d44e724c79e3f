package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/shipit"
	"google.golang.org/genai"
)

var _ shipit.Provider = (*Client)(nil)

// Client implements [shipit.Provider] for the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model used when a request leaves Model empty.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Gemini [Client] authenticated with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required: %w", shipit.ErrValidation)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Model returns the default model ID.
func (c *Client) Model() string { return c.model }

// Stream starts one streamed generation for req.
func (c *Client) Stream(ctx context.Context, req shipit.Request) (shipit.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	contents := ConvertMessages(req.Messages)
	c.logger.DebugContext(ctx, "gemini request",
		"model", model,
		"messages", len(contents),
		"tools", len(req.Tools))
	it := c.client.Models.GenerateContentStream(ctx, model, contents, buildConfig(req))
	return NewStreamFromIter(ctx, it), nil
}

func buildConfig(req shipit.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           ConvertTools(req.Tools),
		ThinkingConfig:  &genai.ThinkingConfig{IncludeThoughts: true},
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	return config
}

// ConvertMessages converts conversation messages to genai contents.
// Tool results whose text is a JSON object are sent as the response map
// itself; any other text is wrapped under "output" or "error".
func ConvertMessages(msgs []shipit.Message) []*genai.Content {
	var out []*genai.Content
	for _, msg := range msgs {
		switch m := msg.(type) {
		case shipit.UserMessage:
			out = append(out, &genai.Content{Role: "user", Parts: convertParts(m.Content)})
		case shipit.AssistantMessage:
			out = append(out, &genai.Content{Role: "model", Parts: convertParts(m.Content)})
		case shipit.ToolResultMessage:
			out = append(out, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       m.ToolCallID,
						Name:     m.ToolName,
						Response: responseMap(m),
					},
				}},
			})
		}
	}
	return out
}

func responseMap(m shipit.ToolResultMessage) map[string]any {
	var parts []string
	for _, b := range m.Content {
		if tb, ok := b.(shipit.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	text := strings.Join(parts, "\n")
	var obj map[string]any
	if strings.HasPrefix(strings.TrimSpace(text), "{") && json.Unmarshal([]byte(text), &obj) == nil {
		return obj
	}
	if m.IsError {
		return map[string]any{"error": text}
	}
	return map[string]any{"output": text}
}

func convertParts(blocks []shipit.ContentBlock) []*genai.Part {
	var parts []*genai.Part
	for _, b := range blocks {
		switch bl := b.(type) {
		case shipit.TextBlock:
			parts = append(parts, &genai.Part{Text: bl.Text})
		case shipit.ThinkingBlock:
			parts = append(parts, &genai.Part{
				Text:             bl.Thinking,
				Thought:          true,
				ThoughtSignature: bl.Signature,
			})
		case shipit.ToolCallBlock:
			var args map[string]any
			_ = json.Unmarshal(bl.Arguments, &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{ID: bl.ID, Name: bl.Name, Args: args},
			})
		}
	}
	return parts
}

// ConvertTools converts tool declarations into a single genai tool.
func ConvertTools(tools []shipit.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schema,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
