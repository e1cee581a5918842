package modelclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mengke002/info-collector-X/internal/observability/metrics"
	"github.com/mengke002/info-collector-X/internal/resilience/circuitbreaker"
	"github.com/mengke002/info-collector-X/internal/resilience/retry"
)

// OpenAIBackend talks to the Chat Completions API, streaming responses for
// both text and vision (image_url-part) calls.
type OpenAIBackend struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
}

func NewOpenAIBackend(apiKey string) *OpenAIBackend {
	return &OpenAIBackend{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
	}
}

func (o *OpenAIBackend) Name() string { return "openai" }

func (o *OpenAIBackend) TextChat(ctx context.Context, prompt, modelID string, temperature float64, maxRetries int) (*ChatResult, error) {
	return o.chat(ctx, prompt, modelID, temperature, maxRetries, nil)
}

func (o *OpenAIBackend) VisionChat(ctx context.Context, prompt, modelID string, temperature float64, maxRetries int, images []ImageAttachment) (*ChatResult, error) {
	return o.chat(ctx, prompt, modelID, temperature, maxRetries, images)
}

func (o *OpenAIBackend) chat(ctx context.Context, prompt, modelID string, temperature float64, maxRetries int, images []ImageAttachment) (*ChatResult, error) {
	mode := "text"
	if len(images) > 0 {
		mode = "vision"
	}
	callStart := time.Now()
	defer func() {
		metrics.ModelCallDuration.WithLabelValues("openai", mode).Observe(time.Since(callStart).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	cfg := retry.ModelClientConfig(maxRetries)
	cfg.AbortPredicate = abortPredicate

	var result *ChatResult
	err := retry.WithLinearBackoff(ctx, cfg, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doChat(ctx, prompt, modelID, temperature, images)
		})
		if err != nil {
			return err
		}
		result = cbResult.(*ChatResult)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	return result, nil
}

func (o *OpenAIBackend) doChat(ctx context.Context, prompt, modelID string, temperature float64, images []ImageAttachment) (*ChatResult, error) {
	var message openai.ChatCompletionMessage
	if len(images) == 0 {
		message = openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}
	} else {
		parts := make([]openai.ChatMessagePart, 0, len(images)+1)
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: prompt})
		for _, img := range images {
			url := img.Value
			if img.Kind == ImageInlineBase64 {
				url = "data:image/jpeg;base64," + img.Value
			}
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: url},
			})
		}
		message = openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       modelID,
		Messages:    []openai.ChatCompletionMessage{message},
		Temperature: float32(temperature),
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("openai create stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	var content string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("openai stream recv: %w", err)
		}
		if len(chunk.Choices) == 0 {
			slog.Warn("openai stream: skipping chunk with no choices")
			continue
		}
		content += chunk.Choices[0].Delta.Content
	}
	if content == "" {
		return nil, ErrEmptyResponse
	}

	return &ChatResult{Content: content, Provider: "openai", Model: modelID}, nil
}
