package modelclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mengke002/info-collector-X/internal/observability/metrics"
	"github.com/mengke002/info-collector-X/internal/resilience/circuitbreaker"
	"github.com/mengke002/info-collector-X/internal/resilience/retry"
)

// ClaudeBackend talks to the Anthropic Messages API. Text and vision
// calls share one streaming code path: vision calls simply prepend image
// content blocks ahead of the text block.
type ClaudeBackend struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
}

func NewClaudeBackend(apiKey string) *ClaudeBackend {
	return &ClaudeBackend{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
	}
}

func (c *ClaudeBackend) Name() string { return "claude" }

func (c *ClaudeBackend) TextChat(ctx context.Context, prompt, modelID string, temperature float64, maxRetries int) (*ChatResult, error) {
	return c.chat(ctx, prompt, modelID, temperature, maxRetries, nil)
}

func (c *ClaudeBackend) VisionChat(ctx context.Context, prompt, modelID string, temperature float64, maxRetries int, images []ImageAttachment) (*ChatResult, error) {
	return c.chat(ctx, prompt, modelID, temperature, maxRetries, images)
}

func (c *ClaudeBackend) chat(ctx context.Context, prompt, modelID string, temperature float64, maxRetries int, images []ImageAttachment) (*ChatResult, error) {
	mode := "text"
	if len(images) > 0 {
		mode = "vision"
	}
	callStart := time.Now()
	defer func() {
		metrics.ModelCallDuration.WithLabelValues("claude", mode).Observe(time.Since(callStart).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	cfg := retry.ModelClientConfig(maxRetries)
	cfg.AbortPredicate = abortPredicate

	var result *ChatResult
	err := retry.WithLinearBackoff(ctx, cfg, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doChat(ctx, prompt, modelID, temperature, images)
		})
		if err != nil {
			return err
		}
		result = cbResult.(*ChatResult)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claude chat: %w", err)
	}
	return result, nil
}

func (c *ClaudeBackend) doChat(ctx context.Context, prompt, modelID string, temperature float64, images []ImageAttachment) (*ChatResult, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	for _, img := range images {
		switch img.Kind {
		case ImageURL:
			blocks = append(blocks, anthropic.NewImageBlock(anthropic.NewImageBlockParamSourceOfURLImageSource(img.Value)))
		case ImageInlineBase64:
			blocks = append(blocks, anthropic.NewImageBlock(anthropic.NewImageBlockParamSourceOfBase64ImageSource("image/jpeg", img.Value)))
		}
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelID),
		MaxTokens:   4096,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}
	chunks := 0
	skipped := 0
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			skipped++
			slog.Warn("claude stream: skipping malformed chunk", slog.String("error", err.Error()))
			continue
		}
		chunks++
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("claude stream: %w", err)
	}

	var content string
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += textBlock.Text
		}
	}
	if content == "" {
		return nil, ErrEmptyResponse
	}

	return &ChatResult{Content: content, Provider: "claude", Model: modelID}, nil
}
