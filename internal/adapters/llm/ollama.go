// Package llm provides the Ollama LLM adapter.
// Clean Architecture: Adapter implementing ports.LLMService.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Adapter defaults.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2:latest"
	DefaultTimeout = 300 * time.Second
)

// OllamaLLMAdapter implements ports.LLMService using Ollama API.
// The model is chosen per call; fallbackModel covers callers that pass none.
type OllamaLLMAdapter struct {
	baseURL       string
	fallbackModel string
	client        *http.Client
}

// NewOllamaLLMAdapter creates a new Ollama LLM adapter.
func NewOllamaLLMAdapter(baseURL, fallbackModel string, timeout time.Duration) *OllamaLLMAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if fallbackModel == "" {
		fallbackModel = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaLLMAdapter{
		baseURL:       baseURL,
		fallbackModel: fallbackModel,
		client:        &http.Client{Timeout: timeout},
	}
}

// ollamaGenerateRequest is the Ollama generate API request.
type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaGenerateResponse is one Ollama generate API response line.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate produces a complete response from the given model.
func (a *OllamaLLMAdapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := a.post(ctx, model, prompt, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var genResp ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("ollama: %s", genResp.Error)
	}

	return genResp.Response, nil
}

// GenerateStream streams newline-delimited JSON chunks as StreamTokens.
// The channel is closed after a Done token or an error token.
func (a *OllamaLLMAdapter) GenerateStream(ctx context.Context, model, prompt string) (<-chan entities.StreamToken, error) {
	resp, err := a.post(ctx, model, prompt, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan entities.StreamToken, 100)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		send := func(tok entities.StreamToken) bool {
			select {
			case ch <- tok:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if ctx.Err() != nil {
				send(entities.StreamToken{Done: true, Error: ctx.Err()})
				return
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk ollamaGenerateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue // Skip malformed lines
			}
			if chunk.Error != "" {
				send(entities.StreamToken{Done: true, Error: fmt.Errorf("ollama: %s", chunk.Error)})
				return
			}

			if !send(entities.StreamToken{Content: chunk.Response, Done: chunk.Done}) || chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			send(entities.StreamToken{Done: true, Error: err})
		}
	}()

	return ch, nil
}

func (a *OllamaLLMAdapter) post(ctx context.Context, model, prompt string, stream bool) (*http.Response, error) {
	if model == "" {
		model = a.fallbackModel
	}

	jsonData, err := json.Marshal(ollamaGenerateRequest{Model: model, Prompt: prompt, Stream: stream})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Ollama: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("Ollama returned status %d for model %s: %s", resp.StatusCode, model, bytes.TrimSpace(body))
	}

	return resp, nil
}
