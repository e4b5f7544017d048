package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/yungbote/recipevault-backend/internal/domain"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

// ParsedIngredient is one structured line sent to the nutrition service.
type ParsedIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Client computes nutrition facts for a parsed ingredient list. Compute
// returns an error for any non-success outcome, including well-formed
// "no data" responses; the enrichment step decides what to do with it.
type Client interface {
	Compute(ctx context.Context, ingredients []ParsedIngredient, servings int) (*domain.Nutrition, error)
}

type client struct {
	log     *logger.Logger
	baseURL string
	apiKey  string
	http    *http.Client
}

type computeRequest struct {
	Ingredients []ParsedIngredient `json:"ingredients"`
	Servings    int                `json:"servings,omitempty"`
}

type computeResponse struct {
	Success   bool              `json:"success"`
	Nutrition *domain.Nutrition `json:"nutrition"`
	Error     string            `json:"error,omitempty"`
}

// NewClientFromEnv returns (nil, nil) when NUTRITION_API_URL is unset; the
// orchestrator then skips enrichment entirely.
func NewClientFromEnv(log *logger.Logger) (Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("NUTRITION_API_URL"))
	if baseURL == "" {
		return nil, nil
	}
	return NewClient(log, baseURL, strings.TrimSpace(os.Getenv("NUTRITION_API_KEY")))
}

func NewClient(log *logger.Logger, baseURL, apiKey string) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid nutrition api url %q", baseURL)
	}
	c := &client{
		log:     log.With("service", "NutritionClient"),
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	log.Info("Nutrition client configured", "url", c.baseURL, "api_key", apiKey)
	return c, nil
}

func (c *client) Compute(ctx context.Context, ingredients []ParsedIngredient, servings int) (*domain.Nutrition, error) {
	if c == nil {
		return nil, fmt.Errorf("nutrition client not configured")
	}
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("no ingredients to compute")
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(computeRequest{Ingredients: ingredients, Servings: servings}); err != nil {
		return nil, fmt.Errorf("encode nutrition request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/compute", &buf)
	if err != nil {
		return nil, fmt.Errorf("build nutrition request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nutrition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("nutrition service status=%d body=%q", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out computeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode nutrition response: %w", err)
	}
	if !out.Success || out.Nutrition == nil {
		msg := strings.TrimSpace(out.Error)
		if msg == "" {
			msg = "no nutrition data"
		}
		return nil, fmt.Errorf("nutrition service: %s", msg)
	}
	return out.Nutrition, nil
}
