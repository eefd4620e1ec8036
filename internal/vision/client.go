// Package vision wraps the OpenAI-style vision capability used for frame
// grading and image enhancement.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	defaultModel        = "gpt-4o"
	defaultImageModel   = "gpt-image-1"
	defaultHTTPTimeout  = 60 * time.Second
	chatCompletionsPath = "/chat/completions"
	imageEditsPath      = "/images/edits"
)

const gradingInstruction = "You are a strict photo curator grading still frames " +
	"pulled from a video. Grade harshly: most frames are Fair, few are Good, " +
	"and only genuinely striking frames are Excellent. Respond with a single " +
	"JSON object with exactly these fields: quality (one of \"Fair\", \"Good\", " +
	"\"Excellent\"), qualityReason (short justification), people (list of short " +
	"descriptors, may be empty), shotType (one of \"Pose\", \"Candid\", " +
	"\"Unknown\"), tags (list of scene keywords), compositionScore (number from " +
	"1 to 10), technicalAdvice (sentence-delimited list of actionable fixes), " +
	"and optionally subjectId (stable snake_case descriptor for the main subject)."

// Config captures the runtime settings required to talk to the capability.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	ImageModel     string
	TimeoutSeconds int
}

// Client talks to the vision capability over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a capability client from config, filling defaults.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaultImageModel
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GradeFrame sends the frame image with the fixed grading instruction and
// returns the raw JSON verdict payload. Callers decode it with
// DecodeAnalysis.
func (c *Client) GradeFrame(ctx context.Context, image []byte) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", ErrNoCredentials
	}
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: gradingInstruction},
					{Type: "image_url", ImageURL: &imageURL{
						URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
					}},
				},
			},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	body, err := c.post(ctx, chatCompletionsPath, reqBody)
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("vision: api error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision: empty choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("vision: empty content")
	}
	return content, nil
}

type imageEditRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Image  string `json:"image"`
}

type imageEditResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// EnhanceImage submits the image with an enhancement prompt and returns the
// produced image payload. A completed call with no image is a failure
// (ErrNoImage).
func (c *Client) EnhanceImage(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, ErrNoCredentials
	}
	reqBody := imageEditRequest{
		Model:  c.cfg.ImageModel,
		Prompt: prompt,
		Image:  base64.StdEncoding.EncodeToString(image),
	}
	body, err := c.post(ctx, imageEditsPath, reqBody)
	if err != nil {
		return nil, err
	}
	var resp imageEditResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("vision: decode response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("vision: api error: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}
	decoded, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("vision: decode image payload: %w", err)
	}
	return decoded, nil
}

// HealthCheck issues a minimal completion to verify credentials and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return ErrNoCredentials
	}
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: "Respond with {\"ok\":true}"},
			}},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	body, err := c.post(ctx, chatCompletionsPath, reqBody)
	if err != nil {
		return err
	}
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("vision: decode response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("vision: api error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("vision: empty choices")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("vision: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("vision: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vision: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
