package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fujishima/keihi/internal/models"
	"github.com/fujishima/keihi/internal/receipt"
	"github.com/fujishima/keihi/pkg/utils"
	"go.uber.org/zap"
)

// Backend produces the raw model response for a receipt file. *Client is the
// production implementation.
type Backend interface {
	AnalyzeFile(ctx context.Context, filePath string) (string, error)
}

// Analyzer drives the analysis call: bounded retries with exponential
// backoff, response validation, and date normalization. Either the full
// structured payload comes back or the call fails; partial results are never
// returned.
type Analyzer struct {
	backend     Backend
	normalizer  *receipt.DateNormalizer
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.Logger
}

// NewAnalyzer creates an analyzer. maxAttempts is the total number of calls,
// not the retry count; values below 1 are clamped to 1.
func NewAnalyzer(backend Backend, normalizer *receipt.DateNormalizer, maxAttempts int, logger *zap.Logger) *Analyzer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Analyzer{
		backend:     backend,
		normalizer:  normalizer,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
		logger:      logger,
	}
}

// Analyze runs the extraction for one file. Network failures, empty
// responses, and malformed payloads are all retried with 2^attempt seconds
// of backoff; after the attempts run out the last cause is wrapped in an
// *AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, filePath string) ([]*models.Record, error) {
	var lastErr error

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		a.logger.Debug("Analyzing receipt",
			zap.String("file", filePath),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", a.maxAttempts))

		records, err := a.analyzeOnce(ctx, filePath)
		if err == nil {
			a.logger.Info("Receipt analysis succeeded",
				zap.String("file", filePath),
				zap.Int("records", len(records)))
			return records, nil
		}

		lastErr = err
		a.logger.Warn("Receipt analysis attempt failed",
			zap.String("file", filePath),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < a.maxAttempts-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if err := a.sleep(ctx, backoff); err != nil {
				return nil, &AnalysisError{Attempts: attempt + 1, Err: err}
			}
		}
	}

	return nil, &AnalysisError{Attempts: a.maxAttempts, Err: lastErr}
}

func (a *Analyzer) analyzeOnce(ctx context.Context, filePath string) ([]*models.Record, error) {
	text, err := a.backend.AnalyzeFile(ctx, filePath)
	if err != nil {
		return nil, err
	}

	records, err := parseResponse(text)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		rec.Date = a.normalizer.Normalize(rec.Date)
		rec.VendorName = utils.SanitizeString(rec.VendorName)
		rec.Category = utils.SanitizeString(rec.Category)
		if err := utils.ValidateAmount(rec.TotalAmount); err != nil {
			a.logger.Warn("Suspicious extracted amount",
				zap.String("vendor", rec.VendorName),
				zap.Error(err))
		}
		for i := range rec.Items {
			rec.Items[i].Date = a.normalizer.Normalize(rec.Items[i].Date)
			rec.Items[i].Vendor = utils.SanitizeString(rec.Items[i].Vendor)
			rec.Items[i].VendorName = utils.SanitizeString(rec.Items[i].VendorName)
		}
	}

	return records, nil
}

// parseResponse strips markdown code fences and decodes the payload. The
// model returns either a JSON array of records or a single object.
func parseResponse(text string) ([]*models.Record, error) {
	clean := stripCodeFences(text)
	if clean == "" {
		return nil, fmt.Errorf("empty payload after stripping fences")
	}

	if strings.HasPrefix(clean, "[") {
		var records []*models.Record
		if err := json.Unmarshal([]byte(clean), &records); err != nil {
			return nil, fmt.Errorf("failed to parse response array: %w", err)
		}
		return records, nil
	}

	var rec models.Record
	if err := json.Unmarshal([]byte(clean), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse response object: %w", err)
	}
	return []*models.Record{&rec}, nil
}

// stripCodeFences removes a ```json ... ``` (or bare ```) wrapper the model
// sometimes adds despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		return strings.Trim(s, "`")
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
