package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// HTTPEmbedConfig configures an embedding server reached over HTTP. The
// wire protocol is Ollama's `/api/embed` + `/api/tags` pair: POST
// {model, input[]} and parse {embeddings[][]float64}; GET /api/tags lists
// locally available models for the connection probe.
type HTTPEmbedConfig struct {
	Host            string
	Model           string
	Dimensions      int // 0 = auto-detect from first response
	BatchSize       int
	Timeout         time.Duration
	ConnectTimeout  time.Duration
	MaxRetries      int
	SkipHealthCheck bool // for tests
}

// DefaultHTTPEmbedConfig returns sensible defaults.
func DefaultHTTPEmbedConfig() HTTPEmbedConfig {
	return HTTPEmbedConfig{
		Host:           "http://localhost:11434",
		BatchSize:      DefaultBatchSize,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		MaxRetries:     DefaultMaxRetries,
	}
}

type httpEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type httpEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

type httpModelListResponse struct {
	Models []httpModelInfo `json:"models"`
}

type httpModelInfo struct {
	Name string `json:"name"`
}

// HTTPEmbedder generates embeddings by calling an externally-served
// embedding model over HTTP. Dimensions are learned from the first
// response when not explicitly configured.
type HTTPEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    HTTPEmbedConfig
	modelName string
	dims      int

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*HTTPEmbedder)(nil)

// NewHTTPEmbedder connects to an embedding server and, unless
// SkipHealthCheck is set, verifies the configured model is available and
// (if Dimensions is unset) probes its output width with a test embedding.
func NewHTTPEmbedder(ctx context.Context, cfg HTTPEmbedConfig) (*HTTPEmbedder, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHTTPEmbedConfig().Host
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     10 * time.Second,
	}
	client := &http.Client{Transport: transport}

	e := &HTTPEmbedder{
		client:    client,
		transport: transport,
		config:    cfg,
		modelName: cfg.Model,
		dims:      cfg.Dimensions,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()

		if err := e.checkModelAvailable(checkCtx); err != nil {
			transport.CloseIdleConnections()
			return nil, fmt.Errorf("failed to connect to embedding server: %w", err)
		}

		if cfg.Dimensions == 0 {
			dims, err := e.detectDimensions(checkCtx)
			if err != nil {
				transport.CloseIdleConnections()
				return nil, fmt.Errorf("failed to detect embedding dimensions: %w", err)
			}
			e.dims = dims
		}
	}

	return e, nil
}

// CheckConnection probes an embedding server without constructing a full
// embedder, returning the list of model names it advertises. This is the
// `checkConnection(url) -> {models[]} | null` probe exposed to callers
// deciding whether to point a silo at a given server.
func CheckConnection(ctx context.Context, host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding server unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned status %d", resp.StatusCode)
	}

	var result httpModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

func (e *HTTPEmbedder) listModels(ctx context.Context) ([]httpModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to embedding server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result httpModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Models, nil
}

func (e *HTTPEmbedder) checkModelAvailable(ctx context.Context) error {
	models, err := e.listModels(ctx)
	if err != nil {
		return err
	}
	if e.modelName == "" {
		if len(models) == 0 {
			return fmt.Errorf("no models available on embedding server")
		}
		e.modelName = models[0].Name
		return nil
	}
	target := strings.ToLower(e.modelName)
	for _, m := range models {
		name := strings.ToLower(m.Name)
		if name == target || strings.Split(name, ":")[0] == strings.Split(target, ":")[0] {
			return nil
		}
	}
	return fmt.Errorf("model %q not found on embedding server", e.modelName)
}

func (e *HTTPEmbedder) detectDimensions(ctx context.Context) (int, error) {
	embeddings, err := e.doEmbed(ctx, []string{"dimension detection"})
	if err != nil {
		return 0, err
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return 0, fmt.Errorf("empty embedding returned")
	}
	return len(embeddings[0]), nil
}

// Embed generates an embedding for a single text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dims), nil
	}

	embeddings, err := e.doEmbedWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, batching requests at
// the configured batch size.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	type indexedText struct {
		idx  int
		text string
	}
	var nonEmpty []indexedText
	results := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = make([]float32, e.dims)
		} else {
			nonEmpty = append(nonEmpty, indexedText{i, text})
		}
	}
	if len(nonEmpty) == 0 {
		return results, nil
	}

	for start := 0; start < len(nonEmpty); start += e.config.BatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := start + e.config.BatchSize
		if end > len(nonEmpty) {
			end = len(nonEmpty)
		}
		batch := nonEmpty[start:end]
		batchTexts := make([]string, len(batch))
		for i, it := range batch {
			batchTexts[i] = it.text
		}

		embeddings, err := e.doEmbedWithRetry(ctx, batchTexts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}
		for i, emb := range embeddings {
			results[batch[i].idx] = emb
		}
	}
	return results, nil
}

func (e *HTTPEmbedder) doEmbedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	delay := 100 * time.Millisecond

	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		embeddings, err := e.doEmbed(timeoutCtx, texts)
		cancel()

		if err == nil {
			return embeddings, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", e.config.MaxRetries, lastErr)
}

func (e *HTTPEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	var input any
	if len(texts) == 1 {
		input = texts[0]
	} else {
		input = texts
	}

	body, err := json.Marshal(httpEmbedRequest{Model: e.modelName, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResult httpEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResult); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	embeddings := make([][]float32, len(apiResult.Embeddings))
	for i, emb := range apiResult.Embeddings {
		embedding := make([]float32, len(emb))
		for j, v := range emb {
			embedding[j] = float32(v)
		}
		embeddings[i] = normalizeVector(embedding)
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HTTPEmbedder) Dimensions() int { return e.dims }

// ModelName returns the model identifier.
func (e *HTTPEmbedder) ModelName() string { return e.modelName }

// MaxTokens returns the model's technical max context. The HTTP protocol
// does not report this, so callers size chunk budgets from the registry
// entry (if any) matching ModelName instead.
func (e *HTTPEmbedder) MaxTokens() int { return 0 }

// Close releases resources.
func (e *HTTPEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
