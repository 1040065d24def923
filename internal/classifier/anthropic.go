package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	anthropicAPI = "https://api.anthropic.com/v1/messages"
	defaultModel = "claude-sonnet-4-20250514"
)

// Labels is the fixed set of emotions the classifier may return
var Labels = []string{"Sad", "Happy", "Angry", "Surprised"}

// Config configures a Classifier
type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	Client   *http.Client
	Logger   *zap.Logger
}

// Classifier labels journal text with an emotion via the Anthropic API
type Classifier struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// New creates a new Classifier
func New(cfg Config) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key not set")
	}

	c := &Classifier{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: cfg.Endpoint,
		client:   cfg.Client,
		log:      cfg.Logger,
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.endpoint == "" {
		c.endpoint = anthropicAPI
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c, nil
}

// Classify returns one of Labels for text, or "" when no label fits
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	resp, err := c.callAPI(ctx, buildPrompt(text))
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}

	label, err := parseResponse(resp)
	if err != nil {
		return "", err
	}
	c.log.Debug("classified note", zap.String("label", label))
	return label, nil
}

// Normalize maps s onto a label from Labels ignoring case, or "" if none matches
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	for _, l := range Labels {
		if strings.EqualFold(s, l) {
			return l
		}
	}
	return ""
}

func buildPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("Classify the emotion expressed in this mood journal note. Return JSON only.\n\n")
	sb.WriteString("Note:\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString("Allowed labels:\n")
	for _, l := range Labels {
		sb.WriteString("- ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString(`
Return a JSON object with this structure:
{"emotion": "Label"}

Rules:
- Use exactly one of the allowed labels
- Use an empty string when none of them fits

Return ONLY the JSON, no other text.`)

	return sb.String()
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Classifier) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: 64,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return apiResp.Content[0].Text, nil
}

func parseResponse(resp string) (string, error) {
	// Models sometimes wrap JSON in a markdown fence
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var result struct {
		Emotion string `json:"emotion"`
	}
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return "", fmt.Errorf("parse json: %w (response: %s)", err, resp)
	}

	return Normalize(result.Emotion), nil
}
