package gemini

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Config holds Gemini API configuration.
type Config struct {
	APIKey        string
	Model         string
	PollInterval  time.Duration
	UploadTimeout time.Duration
}

// Client wraps the Gemini API for receipt analysis: file upload, processing
// wait, and content generation. Safe for concurrent use.
type Client struct {
	genai         *genai.Client
	model         string
	pollInterval  time.Duration
	uploadTimeout time.Duration
	logger        *zap.Logger
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		genai:         gc,
		model:         cfg.Model,
		pollInterval:  cfg.PollInterval,
		uploadTimeout: cfg.UploadTimeout,
		logger:        logger,
	}, nil
}

// AnalyzeFile uploads the receipt file, waits for the Files API to finish
// processing it, and runs the extraction prompt against it. It returns the
// model's raw text response.
func (c *Client) AnalyzeFile(ctx context.Context, filePath string) (string, error) {
	file, err := c.genai.Files.UploadFromPath(ctx, filePath, &genai.UploadFileConfig{
		MIMEType: mimeTypeFor(filePath),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	file, err = c.waitForProcessing(ctx, file)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: analysisPrompt},
				{
					FileData: &genai.FileData{
						FileURI:  file.URI,
						MIMEType: file.MIMEType,
					},
				},
			},
		},
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}

// waitForProcessing polls the uploaded file until it leaves the PROCESSING
// state. The wait is bounded by the configured upload timeout.
func (c *Client) waitForProcessing(ctx context.Context, file *genai.File) (*genai.File, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for file processing: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		var err error
		file, err = c.genai.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to poll file state: %w", err)
		}
	}

	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("file processing failed: %s", file.Name)
	}

	c.logger.Debug("File ready for analysis",
		zap.String("file", file.Name),
		zap.String("state", string(file.State)))

	return file, nil
}

// mimeTypeFor maps the receipt file extension to its MIME type. Unknown
// extensions are left for the Files API to detect.
func mimeTypeFor(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".pdf":
		return "application/pdf"
	default:
		return ""
	}
}
