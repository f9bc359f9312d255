// Package llm talks to an OpenAI-compatible chat completion endpoint (LM Studio,
// Ollama, llama.cpp server) to describe and tag item photos.
package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/revrost/go-openrouter"
)

// ErrDisabled is returned by a client that was not configured.
var ErrDisabled = errors.New("llm is disabled")

// DefaultPrompt asks a vision model to catalog the photographed item.
const DefaultPrompt = "Analyze this image and provide: " +
	"1) A detailed description of the item shown " +
	"2) Suggested category and tags for inventory management " +
	"3) Notable features or condition. " +
	`Respond with a JSON object {"description": string, "tags": [string]}.`

const systemPrompt = "You are an assistant that catalogs household and workshop items for a personal inventory."

// analysisConfidence is reported for every successful analysis; the models
// used here don't return a usable score of their own.
const analysisConfidence = 0.8

// Config configures the client.
type Config struct {
	Enabled     bool
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Analysis is the result of analyzing a photo.
type Analysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Confidence  float64  `json:"confidence"`
}

// Client is a chat completion client. A nil *Client is valid and disabled.
type Client struct {
	client *openrouter.Client
	cfg    Config
}

// New returns a client for cfg, or nil if cfg is not enabled.
func New(cfg Config) *Client {
	if !cfg.Enabled {
		return nil
	}

	oc := openrouter.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		client: openrouter.NewClientWithConfig(*oc),
		cfg:    cfg,
	}
}

// Enabled reports whether the client will make requests.
func (c *Client) Enabled() bool {
	return c != nil
}

// AnalyzeImage describes and tags a JPEG photo. An empty prompt uses DefaultPrompt.
func (c *Client) AnalyzeImage(ctx context.Context, jpeg []byte, prompt string) (*Analysis, error) {
	if c == nil {
		return nil, ErrDisabled
	}
	if prompt == "" {
		prompt = DefaultPrompt
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
	content, err := c.complete(ctx, []openrouter.ChatCompletionMessage{
		openrouter.SystemMessage(systemPrompt),
		openrouter.UserMessageWithImage(prompt, dataURL),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing image: %w", err)
	}

	a := parseAnalysis(content)
	a.Confidence = analysisConfidence
	return a, nil
}

// GenerateDescription suggests a description for an item. It falls back to
// existing, or the name, when the model gives nothing; on error the fallback
// is returned together with the error.
func (c *Client) GenerateDescription(ctx context.Context, name, existing string) (string, error) {
	fallback := existing
	if fallback == "" {
		fallback = name
	}
	if c == nil {
		return fallback, ErrDisabled
	}

	prompt := fmt.Sprintf("Provide a brief, informative description for an inventory item named '%s'", name)
	if existing != "" {
		prompt += " with this user description: " + existing
	}

	content, err := c.complete(ctx, []openrouter.ChatCompletionMessage{
		openrouter.UserMessage(prompt),
	})
	if err != nil {
		return fallback, fmt.Errorf("generating description: %w", err)
	}
	if content = strings.TrimSpace(content); content != "" {
		return content, nil
	}
	return fallback, nil
}

func (c *Client) complete(ctx context.Context, messages []openrouter.ChatCompletionMessage) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content.Text, nil
}

// parseAnalysis reads a JSON object from the reply if the model produced one,
// otherwise treats the whole reply as the description and extracts keywords.
func parseAnalysis(content string) *Analysis {
	content = strings.TrimSpace(content)

	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		var parsed struct {
			Description string   `json:"description"`
			Tags        []string `json:"tags"`
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err == nil && parsed.Description != "" {
			tags := CleanTags(parsed.Tags)
			if len(tags) == 0 {
				tags = ExtractTags(parsed.Description)
			}
			return &Analysis{Description: strings.TrimSpace(parsed.Description), Tags: tags}
		}
	}

	return &Analysis{Description: content, Tags: ExtractTags(content)}
}
