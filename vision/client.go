package vision

import (
	"context"
	"fmt"
	"net/http"

	"leaflet/file"
	"leaflet/leaflet"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// Settings identifies the Azure OpenAI deployment used for extraction.
type Settings struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

func (s Settings) configured() bool {
	return s.APIKey != "" && s.Endpoint != ""
}

// Client extracts products from leaflet images with a vision-capable chat deployment.
type Client struct {
	settings   Settings
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client. A nil httpClient means http.DefaultClient.
func NewClient(settings Settings, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		settings:   settings,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Extract sends the image at imagePath to the deployment and normalizes the answer.
// Only a failure to read the image is returned as an error; remote failures
// are reported through the Outcome.
func (c *Client) Extract(ctx context.Context, imagePath string) (Outcome, error) {
	dataURI, err := file.DataURI(imagePath)
	if err != nil {
		return Outcome{}, err
	}

	content, err := c.complete(ctx, dataURI)
	if err != nil {
		c.logger.Error("vision request failed",
			zap.String("deployment", c.settings.Deployment),
			zap.String("image", imagePath),
			zap.Error(err))
		return Outcome{Status: StatusUpstreamError, Err: fmt.Errorf("%w: %v", ErrUpstream, err)}, nil
	}

	products, err := leaflet.ParseProducts(content)
	if err != nil {
		c.logger.Error("failed to parse vision response",
			zap.String("deployment", c.settings.Deployment),
			zap.String("content", content),
			zap.Error(err))
		return Outcome{Status: StatusParseError, Raw: content, Err: fmt.Errorf("%w: %v", ErrParse, err)}, nil
	}

	c.logger.Info("extracted products",
		zap.String("deployment", c.settings.Deployment),
		zap.Int("count", len(products)))

	return Outcome{Status: StatusSuccess, Products: products, Raw: content}, nil
}

func (c *Client) complete(ctx context.Context, dataURI string) (string, error) {
	if !c.settings.configured() {
		return "", ErrNotConfigured
	}

	llm, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithToken(c.settings.APIKey),
		openai.WithBaseURL(c.settings.Endpoint),
		openai.WithAPIVersion(c.settings.APIVersion),
		openai.WithModel(c.settings.Deployment),
		openai.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create openai client: %w", err)
	}

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(extractionPrompt),
				llms.ImageURLPart(dataURI),
			},
		},
	}

	resp, err := llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
		openai.WithLegacyMaxTokensField(),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return resp.Choices[0].Content, nil
}
