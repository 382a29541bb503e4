package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// cacheService is a minimal in-memory implementation of the remote protocol.
type cacheService struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]string
}

func newCacheService() *cacheService {
	return &cacheService{entries: make(map[string][]byte), ttls: make(map[string]string)}
}

func (s *cacheService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/cache/")
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		value, ok := s.entries[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(value)
	case http.MethodPut:
		value, _ := io.ReadAll(r.Body)
		s.entries[key] = value
		s.ttls[key] = r.Header.Get("X-Cache-TTL")
	case http.MethodDelete:
		delete(s.entries, key)
	}
}

func TestRemoteBackend_RoundTrip(t *testing.T) {
	service := newCacheService()
	server := httptest.NewServer(service)
	defer server.Close()

	backend := NewRemoteBackend(server.URL)
	ctx := context.Background()

	if _, ok, err := backend.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("Get unknown key = (%v, %v), want miss without error", ok, err)
	}

	if err := backend.Set(ctx, "k", []byte("v"), 90*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := service.ttls["k"]; got != "90" {
		t.Errorf("TTL header = %q, want 90", got)
	}

	value, ok, err := backend.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(value) != "v" {
		t.Errorf("value = %q, want v", value)
	}

	if err := backend.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := backend.Get(ctx, "k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestRemoteBackend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	backend := NewRemoteBackend(server.URL)
	ctx := context.Background()

	if _, _, err := backend.Get(ctx, "k"); err == nil {
		t.Error("Get should surface server errors")
	}
	if err := backend.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Error("Set should surface server errors")
	}
	if err := backend.Delete(ctx, "k"); err == nil {
		t.Error("Delete should surface server errors")
	}
}
