package models

import "fmt"

// FileReadError marks a file that could not be read or exceeded the size
// ceiling. The file is skipped and the batch continues.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// EmbeddingProviderError marks a transient embedding-provider failure. The
// owning job is marked failed; resubmitting the same events is safe because
// all store writes are idempotent.
type EmbeddingProviderError struct {
	Err error
}

func (e *EmbeddingProviderError) Error() string {
	return fmt.Sprintf("embedding provider: %v", e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// StoreUnavailableError marks a store connection failure. The batch aborts
// without partial corruption: the manifest is only updated after a successful
// store mutation, so retrying the same events reconciles state.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// ConfigurationError marks invalid configuration (bad glob, missing required
// key). Raised at startup; not recoverable at runtime.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// CacheUnavailableError marks an unreachable remote cache backend. The result
// cache falls back to in-memory silently; this error is only logged.
type CacheUnavailableError struct {
	Err error
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("cache backend unavailable: %v", e.Err)
}

func (e *CacheUnavailableError) Unwrap() error { return e.Err }
