// Package openai provides a CardGenerator implementation using the OpenAI
// chat completions API. Gemini is reached through its OpenAI-compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
)

const refinePrompt = `Refine the following flashcard based on this instruction: "%s"

Current Front: %s
Current Back: %s

Ensure the output is a single, improved flashcard.
Focus strictly on the provided instruction while maintaining clarity and accuracy.
Use basic HTML tags (<b>, <i>, <ul>, <li>) for rich text formatting.`

const generationPrompt = `%s

Respond with a JSON object whose "%s" field is an array of cards, each with string fields "front" and "back".

Text:
%s`

// cardSchema is the response schema of a single card.
var cardSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		entities.FieldFront: {Type: jsonschema.String},
		entities.FieldBack:  {Type: jsonschema.String},
	},
	Required:             []string{entities.FieldFront, entities.FieldBack},
	AdditionalProperties: false,
}

// Client implements the CardGenerator interface using OpenAI.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewClient creates a new OpenAI card generator.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrAPIKeyMissing
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if endpoint := cfg.Endpoint(); endpoint != "" {
		clientCfg.BaseURL = strings.TrimSuffix(endpoint, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = newHTTPClient(cfg.Timeout)
	}

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// newHTTPClient bounds the wait for response headers only. A streamed body
// may take longer than timeout; its lifetime is bounded by the context.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: transport}
}

// StreamCards starts a streaming completion and returns the response text as
// a chunk source. Each delta of the completion is one fragment.
func (c *Client) StreamCards(ctx context.Context, req ports.GenerateRequest) (ports.ChunkSource, error) {
	arrayKey := req.ArrayKey
	if arrayKey == "" {
		arrayKey = "cards"
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.modelFor(req.Model),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(generationPrompt, req.SystemPrompt, arrayKey, req.Text),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "card_list",
				Schema: cardListSchema(arrayKey),
				Strict: true,
			},
		},
		Temperature: c.temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI: %w", err)
	}

	return &completionSource{stream: stream}, nil
}

// RefineCard rewrites a single card according to an instruction.
func (c *Client) RefineCard(ctx context.Context, card entities.Card, instruction, model string) (entities.Card, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelFor(model),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(refinePrompt, instruction, card.Front, card.Back),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "card",
				Schema: &cardSchema,
				Strict: true,
			},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return entities.Card{}, fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return entities.Card{}, errors.New("no response from OpenAI")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var refined entities.Card
	if err := json.Unmarshal([]byte(content), &refined); err != nil {
		return entities.Card{}, fmt.Errorf("parsing card JSON: %w (response: %s)", err, content)
	}
	refined.Extra = card.Clone().Extra

	return refined, nil
}

func (c *Client) modelFor(model string) string {
	if model != "" {
		return model
	}
	return c.model
}

// cardListSchema returns the response schema of a generation.
func cardListSchema(arrayKey string) *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			arrayKey: {Type: jsonschema.Array, Items: &cardSchema},
		},
		Required:             []string{arrayKey},
		AdditionalProperties: false,
	}
}

// completionSource adapts a chat completion stream to a chunk source.
type completionSource struct {
	stream *openai.ChatCompletionStream
	closed bool
}

// Next returns the content delta of the next stream event.
func (s *completionSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed {
		return nil, io.EOF
	}

	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("receiving completion: %w", err)
	}

	// Usage and role-only events carry no content.
	if len(resp.Choices) == 0 {
		return []byte{}, nil
	}
	return []byte(resp.Choices[0].Delta.Content), nil
}

// Close closes the underlying HTTP response.
func (s *completionSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stream.Close()
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
