// Package modelclient abstracts the two LLM call shapes the enricher and
// report synthesizer need (text chat, vision chat) behind a single
// Backend interface, so callers don't know or care whether they're
// talking to Claude or OpenAI.
package modelclient

import (
	"context"
	"errors"
	"strings"
)

// ImageAttachmentKind tags how an image is supplied to a vision call.
type ImageAttachmentKind string

const (
	ImageURL          ImageAttachmentKind = "url"
	ImageInlineBase64 ImageAttachmentKind = "inline_base64"
)

// ImageAttachment is one image passed to VisionChat, in feed order.
type ImageAttachment struct {
	Kind  ImageAttachmentKind
	Value string // a URL, or a raw base64 payload, depending on Kind
}

// ChatResult is the successful outcome of a text or vision call.
type ChatResult struct {
	Content  string
	Provider string
	Model    string
}

// Backend is one LLM provider capable of text and vision chat completion.
type Backend interface {
	// Name identifies the backend for logging and fan-out selection
	// ("claude", "openai").
	Name() string

	TextChat(ctx context.Context, prompt, modelID string, temperature float64, maxRetries int) (*ChatResult, error)

	VisionChat(ctx context.Context, prompt, modelID string, temperature float64, maxRetries int, images []ImageAttachment) (*ChatResult, error)
}

// ErrEmptyResponse is returned when a streamed response concatenates to
// nothing, which the spec treats as an error rather than a valid empty
// summary.
var ErrEmptyResponse = errors.New("modelclient: empty response after stream assembly")

// abortPredicate implements the spec's retry-abort rule: a 400-class
// error or a message indicating a bad image format is not worth
// retrying, regardless of attempts remaining.
func abortPredicate(err error) bool {
	if err == nil {
		return false
	}
	var httpErr interface{ StatusCode() int }
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode()
		if code >= 400 && code < 500 {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bad image format") ||
		strings.Contains(msg, "unsupported image") ||
		strings.Contains(msg, "400 ") ||
		strings.Contains(msg, "invalid_request_error")
}
