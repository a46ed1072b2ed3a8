package invalidate

import (
	"context"
	"errors"

	"github.com/jonwraymond/contentops/observe"
	"github.com/jonwraymond/contentops/pattern"
)

// BatchInvalidate processes a list of events synchronously, bypassing the
// queue. Resolved patterns are deduplicated across the whole batch so N
// events implying the same pattern invalidate it once. Malformed events
// are logged and skipped; boundary failures are collected and joined.
func (e *Engine) BatchInvalidate(ctx context.Context, events []Event) error {
	seen := make(map[string]struct{})
	var patterns []string

	collect := func(resolved string) {
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		patterns = append(patterns, resolved)
	}

	for _, event := range events {
		if event.Resource == "" {
			e.logger.Warn(ctx, "skipping batch event without resource",
				observe.Field{Key: "type", Value: string(event.Type)})
			continue
		}
		vars := event.vars()

		e.mu.Lock()
		rules := make([]Rule, len(e.rules[event.Resource]))
		copy(rules, e.rules[event.Resource])
		e.mu.Unlock()

		for _, rule := range rules {
			if rule.Trigger != event.Type {
				continue
			}
			for _, pat := range rule.Patterns {
				collect(pattern.Resolve(pat, vars))
			}
			if rule.Cascade {
				for _, pat := range rule.CascadePatterns {
					resolved := pattern.Resolve(pat, vars)
					if e.cascadeMatchesNothing(ctx, resolved) {
						continue
					}
					collect(resolved)
				}
			}
		}
	}

	var errs []error
	for _, pat := range patterns {
		err := e.boundary.InvalidatePattern(ctx, pat)
		e.metrics.RecordInvalidation(ctx, "batch", err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
