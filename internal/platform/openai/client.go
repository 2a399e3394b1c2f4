package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/observability"
	"github.com/botvine/huddle/internal/pkg/httpx"
	"github.com/botvine/huddle/internal/prompts"
)

// Usage reports token consumption for a single call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Client is the OpenAI surface the bot uses: one-shot text, structured
// JSON, and conversation-backed replies for threaded context.
type Client interface {
	GenerateText(ctx context.Context, system string, user string) (string, Usage, error)
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, Usage, error)
	CreateConversation(ctx context.Context) (string, error)
	GenerateTextInConversation(ctx context.Context, conversationID string, instructions string, user string) (string, Usage, error)
	Model() string
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int

	temperature *float64

	// If a model rejects temperature once, omit it from then on.
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := 120
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 4
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	var tempPtr *float64
	if v := strings.TrimSpace(os.Getenv("OPENAI_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			tempPtr = &f
		}
	}

	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:  maxRetries,
		temperature: tempPtr,
		noTempSeen:  map[string]bool{},
	}, nil
}

func (c *client) Model() string {
	return c.model
}

type responsesRequest struct {
	Model string `json:"model"`

	Conversation any    `json:"conversation,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	Input []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"input"`

	Text struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
	Usage   struct {
		InputTokens      int `json:"input_tokens"`
		OutputTokens     int `json:"output_tokens"`
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func usageFromResponse(resp responsesResponse) Usage {
	u := Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	if u.InputTokens == 0 && u.OutputTokens == 0 {
		u.InputTokens = resp.Usage.PromptTokens
		u.OutputTokens = resp.Usage.CompletionTokens
	}
	return u
}

// usageFromRaw pulls token usage out of a successful response body for
// metrics. Endpoints without a usage block report zero.
func usageFromRaw(raw []byte) (int, int) {
	var resp responsesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, 0
	}
	u := usageFromResponse(resp)
	return u.InputTokens, u.OutputTokens
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) applyTemperature(req *responsesRequest) {
	if c.temperature == nil {
		return
	}
	c.noTempMu.RLock()
	blocked := c.noTempSeen[req.Model]
	c.noTempMu.RUnlock()
	if blocked {
		return
	}
	req.Temperature = c.temperature
}

func (c *client) noteNoTempModel(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[model] = true
	c.noTempMu.Unlock()
}

func isUnsupportedTemperatureParam(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, needle := range []string{
		"unsupported parameter",
		"unknown parameter",
		"not supported",
		"does not support",
		"only the default",
		"unsupported_value",
		"invalid_request_error",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second
	start := time.Now()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if metrics := observability.Current(); metrics != nil {
				in, out := usageFromRaw(raw)
				metrics.ObserveLLMRequest(c.model, path, statusFromResp(resp), time.Since(start), in, out)
			}
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			if metrics := observability.Current(); metrics != nil {
				metrics.ObserveLLMRequest(c.model, path, statusFromRespErr(resp, err), time.Since(start), 0, 0)
			}
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// doWithTempFallback retries exactly once without temperature if the model
// rejects it, and remembers the model so later calls omit it up front.
func (c *client) doWithTempFallback(ctx context.Context, method, path string, req *responsesRequest, out any) error {
	if req == nil {
		return c.do(ctx, method, path, nil, out)
	}
	err := c.do(ctx, method, path, req, out)
	if err == nil {
		return nil
	}
	if req.Temperature == nil {
		return err
	}
	if !isUnsupportedTemperatureParam(err) {
		return err
	}
	c.noteNoTempModel(req.Model)
	req.Temperature = nil
	return c.do(ctx, method, path, req, out)
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, Usage, error) {
	system = prompts.ApplySystem(system, "text")
	req := responsesRequest{
		Model: c.model,
		Input: []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		}{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	c.applyTemperature(&req)

	var resp responsesResponse
	if err := c.doWithTempFallback(ctx, "POST", "/v1/responses", &req, &resp); err != nil {
		return "", Usage{}, err
	}
	if resp.Refusal != "" {
		return "", usageFromResponse(resp), fmt.Errorf("model refused: %s", resp.Refusal)
	}

	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", usageFromResponse(resp), fmt.Errorf("no output_text found in response")
	}
	return text, usageFromResponse(resp), nil
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, Usage, error) {
	if schemaName == "" {
		return nil, Usage{}, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, Usage{}, errors.New("schema required")
	}
	system = prompts.ApplySystem(system, "json")

	req := responsesRequest{
		Model: c.model,
		Input: []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		}{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	c.applyTemperature(&req)

	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}

	var resp responsesResponse
	if err := c.doWithTempFallback(ctx, "POST", "/v1/responses", &req, &resp); err != nil {
		return nil, Usage{}, err
	}
	if resp.Refusal != "" {
		return nil, usageFromResponse(resp), fmt.Errorf("model refused: %s", resp.Refusal)
	}

	jsonText := extractOutputText(resp)
	if strings.TrimSpace(jsonText) == "" {
		return nil, usageFromResponse(resp), fmt.Errorf("no output_text found in response")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, usageFromResponse(resp), fmt.Errorf("failed to parse model JSON: %w; text=%s", err, jsonText)
	}
	return obj, usageFromResponse(resp), nil
}

func (c *client) CreateConversation(ctx context.Context) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "POST", "/v1/conversations", map[string]any{}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", fmt.Errorf("openai create conversation: missing id")
	}
	return strings.TrimSpace(out.ID), nil
}

func (c *client) GenerateTextInConversation(ctx context.Context, conversationID string, instructions string, user string) (string, Usage, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return "", Usage{}, fmt.Errorf("conversation_id required")
	}
	instructions = prompts.ApplySystem(instructions, "text")

	req := responsesRequest{
		Model:        c.model,
		Conversation: conversationID,
		Instructions: strings.TrimSpace(instructions),
		Input: []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		}{
			{Role: "user", Content: user},
		},
	}
	c.applyTemperature(&req)

	var resp responsesResponse
	if err := c.doWithTempFallback(ctx, "POST", "/v1/responses", &req, &resp); err != nil {
		return "", Usage{}, err
	}
	if resp.Refusal != "" {
		return "", usageFromResponse(resp), fmt.Errorf("model refused: %s", resp.Refusal)
	}

	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", usageFromResponse(resp), fmt.Errorf("no output_text found in response")
	}
	return text, usageFromResponse(resp), nil
}

func statusFromResp(resp *http.Response) string {
	if resp == nil {
		return "unknown"
	}
	return strconv.Itoa(resp.StatusCode)
}

func statusFromRespErr(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	var httpErr *openAIHTTPError
	if err != nil && errors.As(err, &httpErr) {
		return strconv.Itoa(httpErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
