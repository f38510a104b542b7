package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DuplicateChecker answers whether an uploaded design is a near-duplicate of
// an existing one. The similarity algorithm itself lives in an external
// service; only its pass/fail contract matters here.
type DuplicateChecker interface {
	// IsDuplicate reports whether the object at storagePath duplicates an
	// existing design.
	IsDuplicate(ctx context.Context, storagePath string) (bool, error)
}

// SimilarityClient calls the external image-similarity service over HTTP.
type SimilarityClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewSimilarityClient creates a client for the similarity service. An empty
// baseURL disables screening: every design passes.
func NewSimilarityClient(baseURL string, logger zerolog.Logger) *SimilarityClient {
	return &SimilarityClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With().Str("service", "SimilarityClient").Logger(),
	}
}

// IsDuplicate posts the storage path to the similarity service and returns
// its verdict.
func (c *SimilarityClient) IsDuplicate(ctx context.Context, storagePath string) (bool, error) {
	if c.baseURL == "" {
		return false, nil
	}
	body, err := json.Marshal(map[string]string{"storage_path": storagePath})
	if err != nil {
		return false, fmt.Errorf("marshal similarity request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/similarity/check", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build similarity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call similarity service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("similarity service returned status %d", resp.StatusCode)
	}
	var result struct {
		Duplicate bool    `json:"duplicate"`
		Score     float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode similarity response: %w", err)
	}
	if result.Duplicate {
		c.logger.Info().Str("storage_path", storagePath).Float64("score", result.Score).Msg("Design flagged as duplicate")
	}
	return result.Duplicate, nil
}
