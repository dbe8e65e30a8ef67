// Package provider implements the model endpoint contract against local
// inference servers: Ollama, LocalAI, or any OpenAI-compatible endpoint.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/teranos/triage/am"
	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/triage"
)

// LocalProvider speaks the OpenAI chat-completions wire format against a
// local inference server. One synchronous request per prompt, no streaming.
type LocalProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	config     *am.LocalInferenceConfig
}

// NewLocalProvider creates a provider for local inference
func NewLocalProvider(cfg *am.LocalInferenceConfig) *LocalProvider {
	return &LocalProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		config: cfg,
	}
}

// ChatCompletionRequest matches OpenAI API format (Ollama is compatible)
type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []ChatMessage   `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *CompletionOpts `json:"options,omitempty"` // Ollama-specific options
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionOpts struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"` // Context window size (0 = model default)
}

// ChatCompletionResponse matches OpenAI API format
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Generate sends one prompt and returns the raw reply text. Failures carry
// the triage classification: transport and 5xx errors are transient, an
// unknown model is a configuration failure.
func (lp *LocalProvider) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := 0.1
	if lp.config.Temperature != nil {
		temperature = *lp.config.Temperature
	}

	reqBody := ChatCompletionRequest{
		Model: lp.model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
		Stream: false,
		Options: &CompletionOpts{
			Temperature: temperature,
			NumCtx:      lp.config.ContextSize,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", triage.NewInvocationError(triage.FailureConfig,
			errors.Wrap(err, "failed to marshal request"))
	}

	endpoint := lp.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", triage.NewInvocationError(triage.FailureConfig,
			errors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := lp.httpClient.Do(req)
	if err != nil {
		return "", triage.NewInvocationError(triage.FailureTransient,
			errors.Wrap(err, "request failed"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", classifyStatus(resp.StatusCode, string(body))
	}

	var completion ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", triage.NewInvocationError(triage.FailureTransient,
			errors.Wrap(err, "failed to decode response"))
	}

	if len(completion.Choices) == 0 {
		return "", triage.NewInvocationError(triage.FailureTransient,
			errors.New("no completion choices returned"))
	}

	return completion.Choices[0].Message.Content, nil
}

// classifyStatus maps a non-200 endpoint status onto the failure taxonomy.
// A 404 here means the model name is unknown to the server: terminal for
// the batch. Everything server-side is assumed recoverable.
func classifyStatus(status int, body string) error {
	err := errors.Newf("local inference returned status %d: %.200s", status, body)
	if status == http.StatusNotFound || status == http.StatusBadRequest {
		return triage.NewInvocationError(triage.FailureConfig, err)
	}
	return triage.NewInvocationError(triage.FailureTransient, err)
}

// ModelName returns the configured local model name
func (lp *LocalProvider) ModelName() string {
	return lp.model
}

// modelList matches the OpenAI /v1/models response shape
type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CheckModel verifies the configured model is known to the endpoint. Run
// before a batch so a typo in the model name aborts up front instead of
// failing every record.
func (lp *LocalProvider) CheckModel(ctx context.Context) error {
	endpoint := lp.baseURL + "/v1/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create model list request")
	}

	resp, err := lp.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "model endpoint unreachable at %s", lp.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("model list returned status %d", resp.StatusCode)
	}

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return errors.Wrap(err, "failed to decode model list")
	}

	for _, m := range list.Data {
		if m.ID == lp.model {
			return nil
		}
	}
	return errors.Newf("model %q not available on endpoint (have %d models)", lp.model, len(list.Data))
}
