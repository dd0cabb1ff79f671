package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jsalter/lplate/pkg/logger"
)

// Config represents the configuration for the extraction client
type Config struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
	MaxTokens      int
}

// Client calls the OpenAI vision API to transcribe one page image.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
	maxTok  int64
	logger  *logger.Logger
}

// NewClient creates a new extraction client
func NewClient(config Config, logger *logger.Logger) *Client {
	if config.APIKey == "" {
		logger.Warn("OpenAI API key is empty - logbook scanning will not work")
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 120
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	return &Client{
		api:     openai.NewClient(option.WithAPIKey(config.APIKey)),
		model:   config.Model,
		timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		maxTok:  int64(config.MaxTokens),
		logger:  logger.Named("extraction"),
	}
}

// ExtractPage sends one page image and returns the decoded payload.
// This is the only blocking call in the scan pipeline; the single
// cancellable unit per page. One attempt per page, no retries here.
func (c *Client) ExtractPage(ctx context.Context, image []byte, mimeType string) (*Payload, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty page image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	c.logger.Debug("Requesting page extraction",
		logger.String("model", c.model),
		logger.Int("image_bytes", len(image)))

	start := time.Now()
	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(ExtractionPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Transcribe every row on this logbook page."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		MaxTokens: openai.Int(c.maxTok),
	})
	if err != nil {
		return nil, fmt.Errorf("vision extraction call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("vision extraction returned no choices")
	}

	payload, err := ParsePayload(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Page extraction completed",
		logger.String("page_type", string(payload.PageType)),
		logger.Int("entries", len(payload.Entries)),
		logger.Duration("elapsed", time.Since(start)))

	return payload, nil
}
