package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"commutesurvey/internal/model"
)

// CollectAPI is the backend records are loaded from and saved to
type CollectAPI interface {
	GetRecord(ctx context.Context, tokenOrSlug string) (*RecordPayload, error)
	PostRecord(ctx context.Context, tokenOrSlug string, record *model.Record) error
	PutComments(ctx context.Context, token, comments string) error
	GetTypo(ctx context.Context, token, locale string) (*model.Recommendation, error)
	GetInfo(ctx context.Context, tokenOrSlug string) (*model.CampaignInfo, error)
}

// RecordPayload is a record as the backend returns it, before defaults are applied
type RecordPayload struct {
	Token string          `json:"token"`
	Data  json.RawMessage `json:"data"`
}

// CollectClient wraps the public collect endpoints of the backend
type CollectClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// NewCollectClient creates a client for the collect API rooted at baseURL
func NewCollectClient(baseURL string, timeout time.Duration, maxRetries int) *CollectClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &CollectClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

// apiError is the error body the backend returns
type apiError struct {
	Detail string `json:"detail"`
}

// doRequest performs an HTTP request, retrying on rate limits, server errors
// and transport failures.
func (c *CollectClient) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}
	log.Printf("[Collect Client] %s %s", method, path)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			log.Printf("[Collect Client] Retry attempt %d/%d for %s %s in %v", attempt, c.maxRetries-1, method, path, wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[Collect Client] ERROR: HTTP request failed (attempt %d): %v", attempt+1, err)
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			log.Printf("[Collect Client] RATE LIMITED: %s %s", method, path)
			lastErr = fmt.Errorf("rate limited")
			continue
		case resp.StatusCode >= 500:
			log.Printf("[Collect Client] ERROR: API returned %d for %s %s", resp.StatusCode, method, path)
			lastErr = fmt.Errorf("collect api error %d", resp.StatusCode)
			continue
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, detail(respBody))
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("%w (%d): %s", model.ErrRejected, resp.StatusCode, detail(respBody))
		}
		return respBody, nil
	}

	log.Printf("[Collect Client] ERROR: Max retries (%d) exceeded for %s %s: %v", c.maxRetries, method, path, lastErr)
	return nil, fmt.Errorf("%w: %v", model.ErrNetwork, lastErr)
}

func detail(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		return e.Detail
	}
	return strings.TrimSpace(string(body))
}

func decode[T any](body []byte, what string) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", what, err)
	}
	return &v, nil
}

// GetRecord fetches a record by participant token or campaign slug
func (c *CollectClient) GetRecord(ctx context.Context, tokenOrSlug string) (*RecordPayload, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/record/"+url.PathEscape(tokenOrSlug), nil)
	if err != nil {
		return nil, err
	}
	return decode[RecordPayload](respBody, "record")
}

// PostRecord creates or updates a record
func (c *CollectClient) PostRecord(ctx context.Context, tokenOrSlug string, record *model.Record) error {
	if record == nil {
		return errors.New("nil record")
	}
	_, err := c.doRequest(ctx, http.MethodPost, "/record/"+url.PathEscape(tokenOrSlug), record)
	return err
}

// PutComments updates only the comments of a saved record
func (c *CollectClient) PutComments(ctx context.Context, token, comments string) error {
	payload := map[string]string{"comments": comments}
	_, err := c.doRequest(ctx, http.MethodPut, "/record/"+url.PathEscape(token)+"/comments", payload)
	return err
}

// GetTypo fetches the modal typology and recommendation of a saved record
func (c *CollectClient) GetTypo(ctx context.Context, token, locale string) (*model.Recommendation, error) {
	path := "/record/" + url.PathEscape(token) + "/typo"
	if locale != "" {
		path += "?" + url.Values{"locale": {locale}}.Encode()
	}
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decode[model.Recommendation](respBody, "typology")
}

// GetInfo fetches the campaign description for a token or slug
func (c *CollectClient) GetInfo(ctx context.Context, tokenOrSlug string) (*model.CampaignInfo, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/info/"+url.PathEscape(tokenOrSlug), nil)
	if err != nil {
		return nil, err
	}
	return decode[model.CampaignInfo](respBody, "campaign info")
}
