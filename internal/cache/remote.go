package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RemoteBackend speaks a minimal HTTP key/value protocol:
// GET /cache/{key} -> 200 body | 404, PUT /cache/{key} with X-Cache-TTL
// seconds, DELETE /cache/{key}. Errors make the ResultCache fall back to its
// in-memory backend.
type RemoteBackend struct {
	baseURL string
	client  *http.Client
}

// NewRemoteBackend creates a backend for the cache service at baseURL.
func NewRemoteBackend(baseURL string) *RemoteBackend {
	return &RemoteBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 2 * time.Second},
	}
}

// Get fetches the value for key.
func (r *RemoteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url(key), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("cache get: unexpected status %d", resp.StatusCode)
	}
}

// Set stores value under key with the given TTL.
func (r *RemoteBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.url(key), bytes.NewReader(value))
	if err != nil {
		return err
	}
	req.Header.Set("X-Cache-TTL", strconv.Itoa(int(ttl.Seconds())))
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("cache set: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Delete removes key.
func (r *RemoteBackend) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.url(key), nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("cache delete: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (r *RemoteBackend) url(key string) string {
	return r.baseURL + "/cache/" + key
}
