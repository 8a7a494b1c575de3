// Package source fetches catalog records from ranked, operator-configured
// data sources and implements the adapters for the supported source kinds.
package source

import (
	"context"
	"strings"
	"time"
)

// Target identifies what a source should fetch. Scheme sources ignore it;
// price sources require Commodity.
type Target struct {
	Commodity string
	State     string
	Market    string
}

// Key is the canonical cache key for the target.
func (t Target) Key() string {
	return strings.ToLower(strings.Join([]string{
		strings.TrimSpace(t.Commodity),
		strings.TrimSpace(t.State),
		strings.TrimSpace(t.Market),
	}, "|"))
}

// Fetcher retrieves records for a target. An empty slice with a nil error
// is treated by the chain as a failed attempt.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, target Target) ([]T, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[T any] func(ctx context.Context, target Target) ([]T, error)

func (f FetcherFunc[T]) Fetch(ctx context.Context, target Target) ([]T, error) {
	return f(ctx, target)
}

// Descriptor is one entry of a source chain. Lower Priority runs first.
type Descriptor[T any] struct {
	Name     string
	Priority int
	Enabled  bool
	Timeout  time.Duration
	Source   Fetcher[T]
}

// Attempt records the outcome of one source call.
type Attempt struct {
	Source  string        `json:"source"`
	Error   string        `json:"error,omitempty"`
	Records int           `json:"records"`
	Elapsed time.Duration `json:"elapsed"`
}

// Result is the first successful outcome of a chain.
type Result[T any] struct {
	Records    []T
	SourceUsed string
	Attempts   []Attempt
}
