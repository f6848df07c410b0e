package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/finsum-dev/finsum/internal/prompt"
)

const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicClient calls the Anthropic Messages API through the official SDK.
// The SDK's own retries are disabled; wrap the client in a Retrier.
type AnthropicClient struct {
	APIKey      string
	Model       string
	BaseURL     string // empty uses the SDK default
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// lastResponse keeps the status and headers of the most recent HTTP
// response, so failures whose body is not JSON can still be classified.
type lastResponse struct {
	status int
	header http.Header
}

func (l *lastResponse) middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	res, err := next(req)
	if res != nil {
		l.status = res.StatusCode
		l.header = res.Header
	}
	return res, err
}

func (c *AnthropicClient) sdk(last *lastResponse) anthropic.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithMaxRetries(0),
		option.WithMiddleware(last.middleware),
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	if c.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(c.HTTPClient))
	}
	return anthropic.NewClient(opts...)
}

// Send posts the payload as a single user message with a system prompt.
func (c *AnthropicClient) Send(ctx context.Context, p prompt.Payload) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.Model),
		MaxTokens:   int64(c.MaxTokens),
		Temperature: anthropic.Float(c.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	var last lastResponse
	client := c.sdk(&last)
	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropicError(ctx, err, &last)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", &APIError{Kind: ErrEmptyResponse, Provider: "anthropic", Status: http.StatusOK, Message: "no text content"}
	}
	return text.String(), nil
}

func classifyAnthropicError(ctx context.Context, err error, last *lastResponse) error {
	var sdkErr *anthropic.Error
	if !errors.As(err, &sdkErr) {
		if last.status >= http.StatusBadRequest {
			return &APIError{
				Kind:       KindForStatus(last.status),
				Provider:   "anthropic",
				Status:     last.status,
				Message:    http.StatusText(last.status),
				RetryAfter: parseRetryAfter(last.header.Get("Retry-After")),
			}
		}
		return transportError(ctx, "anthropic", err)
	}

	apiErr := &APIError{
		Kind:     KindForStatus(sdkErr.StatusCode),
		Provider: "anthropic",
		Status:   sdkErr.StatusCode,
		Message:  strings.TrimSpace(sdkErr.RawJSON()),
	}
	if sdkErr.Response != nil {
		apiErr.RetryAfter = parseRetryAfter(sdkErr.Response.Header.Get("Retry-After"))
	}
	var eb anthropicErrorBody
	if json.Unmarshal([]byte(sdkErr.RawJSON()), &eb) == nil && eb.Error.Message != "" {
		apiErr.Message = eb.Error.Message
		if eb.Error.Type == "overloaded_error" {
			apiErr.Kind = ErrServiceUnavailable
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(sdkErr.StatusCode)
	}
	return apiErr
}

// transportError classifies failures below HTTP. Cancellation of ctx is
// returned unchanged so callers can stop.
func transportError(ctx context.Context, provider string, err error) error {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &APIError{Kind: ErrTimeout, Provider: provider, Message: err.Error()}
		}
		return ctx.Err()
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &APIError{Kind: ErrTimeout, Provider: provider, Message: err.Error()}
	}
	return &APIError{Kind: ErrServiceUnavailable, Provider: provider, Message: err.Error()}
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
