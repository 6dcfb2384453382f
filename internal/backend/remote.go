package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"pulmoscan/internal/cache"
	"pulmoscan/internal/model"
)

// Remote calls an external two-class classification service over HTTP.
// Availability can only be known by attempting the call, so it sits
// last in the cascade.
type Remote struct {
	url        string
	token      string
	httpClient *http.Client
	maxRetries int
	cache      cache.ScoreCache
}

// NewRemote creates the remote backend client. cache may be nil.
func NewRemote(url, token string, timeout time.Duration, maxRetries int, scoreCache cache.ScoreCache) *Remote {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Remote{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		cache:      scoreCache,
	}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Mode() model.BackendMode { return model.ModeRemoteService }

func (r *Remote) TwoClass() bool { return true }

// Classify posts the raw image bytes and parses the
// [{"label","score"}] response.
func (r *Remote) Classify(ctx context.Context, imageBytes []byte) ([]model.RawScore, error) {
	if r.cache != nil {
		if scores, err := r.cache.Get(ctx, imageBytes); err != nil {
			log.Printf("[remote] score cache read failed: %v", err)
		} else if scores != nil {
			return scores, nil
		}
	}

	body, err := r.doRequest(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	var scores []model.RawScore
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, fmt.Errorf("malformed classification response: %w", err)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("classification response contained no scores")
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, imageBytes, scores); err != nil {
			log.Printf("[remote] score cache write failed: %v", err)
		}
	}
	return scores, nil
}

// doRequest performs the HTTP call with bounded retries and backoff.
func (r *Remote) doRequest(ctx context.Context, imageBytes []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[remote] retry attempt %d/%d", attempt, r.maxRetries-1)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(imageBytes))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if r.token != "" {
			req.Header.Set("Authorization", "Bearer "+r.token)
		}
		req.Header.Set("Content-Type", "application/octet-stream")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return respBody, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp, attempt)
			log.Printf("[remote] rate limited, waiting %s", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("rate limited (429)")
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, respBody)
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		default:
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", r.maxRetries, lastErr)
}

func retryAfter(resp *http.Response, attempt int) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return backoff(attempt)
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}
