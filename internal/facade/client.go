package facade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"facade/internal/datauri"
	"facade/internal/logging"
	"facade/internal/services"
)

const (
	stageTransform        = "transform"
	defaultModel          = "gemini-2.0-flash-exp"
	defaultRequestTimeout = 120 * time.Second

	msgNoImage = "AI transformation did not return an image."
)

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	TimeoutSeconds int
}

// Generator is the subset of the genai models service used here.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type modelGetter interface {
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Client wraps the Gemini image generation API.
type Client struct {
	cfg       Config
	generator Generator
	logger    *slog.Logger
	timeout   time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithGenerator replaces the genai models service, mainly for tests.
func WithGenerator(generator Generator) Option {
	return func(c *Client) {
		if generator != nil {
			c.generator = generator
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a transformation client. The genai client is created
// eagerly unless a generator was injected.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			Model:          strings.TrimSpace(cfg.Model),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		logger:  logging.NewNop(),
		timeout: defaultRequestTimeout,
	}
	if cfg.TimeoutSeconds > 0 {
		client.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.generator != nil {
		return client, nil
	}
	if client.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfigMissing, stageTransform, "create client", "Generation API key is missing.", nil)
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      client.cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: client.cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	client.generator = genaiClient.Models
	return client, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// HealthCheck verifies the credential and model by fetching the model
// description. Generators that cannot describe models are assumed healthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	getter, ok := c.generator.(modelGetter)
	if !ok {
		return nil
	}
	if _, err := getter.Get(ctx, c.cfg.Model, nil); err != nil {
		return fmt.Errorf("generation health: %w", err)
	}
	return nil
}

// Transform submits img with the facade instruction and returns the first
// inline image in the response.
func (c *Client) Transform(ctx context.Context, img datauri.Image) (datauri.Image, error) {
	if img.Empty() {
		return datauri.Image{}, services.Wrap(services.ErrPreconditionFailed, stageTransform, "validate input", "No image to transform.", nil)
	}
	logger := logging.WithContext(ctx, c.logger)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(Instruction),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	started := time.Now()
	resp, err := c.generator.GenerateContent(ctx, c.cfg.Model, contents, config)
	if err != nil {
		msg := "Image generation failed."
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "Image generation timed out."
		}
		return datauri.Image{}, services.Wrap(services.ErrGenerationFailed, stageTransform, "generate content", msg, err)
	}

	out, text, ok := firstInlineImage(resp)
	if text != "" {
		logger.Debug("model returned text", logging.String("text", text))
	}
	if !ok {
		return datauri.Image{}, services.Wrap(services.ErrGenerationFailed, stageTransform, "read response", msgNoImage, nil)
	}
	logger.Info("facade transformation returned",
		logging.String("model", c.cfg.Model),
		logging.String("mime_type", out.MIMEType),
		logging.Int("bytes", len(out.Data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) (datauri.Image, string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return datauri.Image{}, "", false
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return datauri.New(part.InlineData.MIMEType, part.InlineData.Data), strings.TrimSpace(text.String()), true
		}
	}
	return datauri.Image{}, strings.TrimSpace(text.String()), false
}
