package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

const maxErrorBodyBytes = 1024

// Document is the projected subset of a recipe that gets mirrored into the
// external index. It intentionally excludes instructions and nutrition: the
// index serves discovery, the durable store serves reads.
type Document struct {
	ID           string   `json:"id"`
	SourceURL    string   `json:"sourceUrl"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Cuisine      string   `json:"cuisine,omitempty"`
	Author       string   `json:"author,omitempty"`
	PrepTime     string   `json:"prepTime,omitempty"`
	CookTime     string   `json:"cookTime,omitempty"`
	TotalTime    string   `json:"totalTime,omitempty"`
	Servings     string   `json:"servings,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

// Client mirrors record lifecycle into the external search index. Callers
// treat every error as best-effort; IsNotFound distinguishes the one case a
// delete may ignore.
type Client interface {
	Upsert(ctx context.Context, id string, doc Document) error
	Delete(ctx context.Context, id string) error
}

type client struct {
	log     *logger.Logger
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClientFromEnv returns (nil, nil) when SEARCH_INDEX_URL is unset: the
// index is an optional collaborator and the orchestrator runs without it.
func NewClientFromEnv(log *logger.Logger) (Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("SEARCH_INDEX_URL"))
	if baseURL == "" {
		return nil, nil
	}
	return NewClient(log, baseURL, strings.TrimSpace(os.Getenv("SEARCH_INDEX_API_KEY")))
}

func NewClient(log *logger.Logger, baseURL, apiKey string) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid search index url %q", baseURL)
	}

	c := &client{
		log:     log.With("service", "SearchIndexClient"),
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	log.Info("Search index client configured", "url", c.baseURL, "api_key", apiKey)
	return c, nil
}

func (c *client) Upsert(ctx context.Context, id string, doc Document) error {
	if c == nil {
		return nil
	}
	const op = "upsert"
	id = strings.TrimSpace(id)
	if id == "" {
		return opErr(op, OperationErrorValidation, "document id is required", nil)
	}
	doc.ID = id
	return c.do(ctx, op, http.MethodPut, c.documentPath(id), doc)
}

func (c *client) Delete(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}
	const op = "delete"
	id = strings.TrimSpace(id)
	if id == "" {
		return opErr(op, OperationErrorValidation, "document id is required", nil)
	}
	return c.do(ctx, op, http.MethodDelete, c.documentPath(id), nil)
}

// IsNotFound reports whether err is an index response with HTTP 404. A 404
// on delete means the index is already consistent.
func IsNotFound(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe) && oe.StatusCode == http.StatusNotFound
}

func (c *client) documentPath(id string) string {
	return "/recipes/" + url.PathEscape(id)
}

func (c *client) do(ctx context.Context, op, method, path string, in any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "search index request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("search index http status=%d body=%q", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}
