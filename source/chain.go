package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/use-agent/farmdata/models"
)

// Chain tries its sources one at a time in ascending priority order and
// returns the first non-empty result.
type Chain[T any] struct {
	descriptors []Descriptor[T]
}

// NewChain keeps the enabled descriptors and orders them by priority.
// Descriptors with equal priority keep their configured order.
func NewChain[T any](descriptors ...Descriptor[T]) *Chain[T] {
	enabled := make([]Descriptor[T], 0, len(descriptors))
	for _, d := range descriptors {
		if d.Enabled && d.Source != nil {
			enabled = append(enabled, d)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})
	return &Chain[T]{descriptors: enabled}
}

// Len returns the number of enabled sources.
func (c *Chain[T]) Len() int { return len(c.descriptors) }

// Names returns the enabled source names in attempt order.
func (c *Chain[T]) Names() []string {
	names := make([]string, len(c.descriptors))
	for i, d := range c.descriptors {
		names[i] = d.Name
	}
	return names
}

// Fetch attempts each source under its own timeout. Failures, timeouts and
// empty results are logged and skipped. Fetch returns nil when every source
// failed or when ctx expired before a source succeeded.
func (c *Chain[T]) Fetch(ctx context.Context, target Target) *Result[T] {
	attempts := make([]Attempt, 0, len(c.descriptors))

	for i, d := range c.descriptors {
		if err := ctx.Err(); err != nil {
			slog.Warn("source chain: deadline reached, abandoning remaining sources",
				"target", target.Key(),
				"remaining", len(c.descriptors)-i,
				"error", err,
			)
			return nil
		}

		start := time.Now()
		records, err := c.attempt(ctx, d, target)
		a := Attempt{Source: d.Name, Records: len(records), Elapsed: time.Since(start)}

		if err == nil && len(records) == 0 {
			err = models.NewError(models.ErrCodeScrape, "source returned no records", nil)
		}
		if err != nil {
			a.Error = err.Error()
			attempts = append(attempts, a)
			slog.Warn("source chain: source failed",
				"source", d.Name,
				"target", target.Key(),
				"elapsed_ms", a.Elapsed.Milliseconds(),
				"error", err,
			)
			continue
		}

		attempts = append(attempts, a)
		slog.Debug("source chain: source succeeded",
			"source", d.Name,
			"target", target.Key(),
			"records", len(records),
			"elapsed_ms", a.Elapsed.Milliseconds(),
		)
		return &Result[T]{Records: records, SourceUsed: d.Name, Attempts: attempts}
	}

	if len(c.descriptors) > 0 {
		slog.Warn("source chain: all sources failed", "target", target.Key(), "attempts", len(attempts))
	}
	return nil
}

// attempt runs one source. The call is abandoned when the per-source timeout
// fires even if the source ignores its context.
func (c *Chain[T]) attempt(ctx context.Context, d Descriptor[T], target Target) ([]T, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	type outcome struct {
		records []T
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("source panicked: %v", r)}
			}
		}()
		recs, err := d.Source.Fetch(ctx, target)
		done <- outcome{records: recs, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, wrapError(o.err)
		}
		return o.records, nil
	case <-ctx.Done():
		return nil, wrapError(ctx.Err())
	}
}

// wrapError classifies a source error as a typed scrape error.
func wrapError(err error) *models.Error {
	var typed *models.Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewError(models.ErrCodeTimeout, "source timed out", err)
	}
	return models.NewError(models.ErrCodeScrape, "source failed", err)
}
