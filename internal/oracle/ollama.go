package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arcanaland/corvid/internal/config"
)

// Preamble is prepended to every reading sent to the model
const Preamble = "Interpret this tarot reading based only on the provided text and keywords:\n\n"

// NoInterpretation is returned when the model replies without a response field
const NoInterpretation = "No interpretation available"

var (
	ErrUnavailable = errors.New("interpretation service unavailable")
	ErrTimeout     = errors.New("interpretation request timed out")
	ErrUpstream    = errors.New("interpretation service failed")
	ErrUnexpected  = errors.New("interpretation error")
)

// Client relays readings to a local Ollama server. It makes exactly one attempt per call.
type Client struct {
	endpoint string
	model    string
	timeout  time.Duration
	client   *http.Client
	log      *zap.Logger
}

// New creates a relay client from the [oracle] config section
func New(cfg config.OracleConfig, log *zap.Logger) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		model:    model,
		timeout:  timeout,
		client:   &http.Client{},
		log:      log.Named("oracle"),
	}
}

// Endpoint returns the Ollama base URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Interpret asks the model to interpret text
func (c *Client) Interpret(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	interpretation, err := c.generate(ctx, Preamble+text)
	if err != nil {
		err = c.classify(err)
		c.log.Warn("interpretation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", err
	}

	c.log.Debug("interpretation complete", zap.Duration("elapsed", time.Since(start)))
	return interpretation, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Response == nil {
		return NoInterpretation, nil
	}
	return *result.Response, nil
}

// classify maps a raw failure onto one of the relay sentinels
func (c *Client) classify(err error) error {
	var se *statusError
	switch {
	case errors.As(err, &se):
		return fmt.Errorf("%w: %v", ErrUpstream, se)
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	case isConnRefused(err):
		return fmt.Errorf("%w: cannot connect to Ollama at %s: %v", ErrUnavailable, c.endpoint, err)
	}
	return fmt.Errorf("%w: %v", ErrUnexpected, err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("ollama returned status %d", e.code)
	}
	return fmt.Sprintf("ollama returned status %d: %s", e.code, e.body)
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
}
