package resolve

import (
	"context"
	"fmt"
)

// Stager is the staging subset of the git capability used on one file.
type Stager interface {
	CheckoutOurs(ctx context.Context, path string) error
	CheckoutTheirs(ctx context.Context, path string) error
	Add(ctx context.Context, path string) error
}

// RoundResult counts the outcomes of one conflict round.
type RoundResult struct {
	Resolved int
	Skipped  int
	Failed   int
}

// Failure reports whether the round must abort the rebase. One file that
// cannot be staged poisons the whole round regardless of the rest.
func (r RoundResult) Failure() bool { return r.Failed > 0 }

// RoundResolver applies the whole-file strategy to every path of one
// conflict round.
type RoundResolver struct {
	Strategy Strategy
	Ignore   []string
	Sink     Sink
}

// Resolve stages each conflicted path in listing order. Ignored paths are
// skipped and returned as warnings for the report; they are left untouched
// for manual review. Per-file staging errors are counted, not fatal to the
// loop.
func (rr *RoundResolver) Resolve(ctx context.Context, stager Stager, paths []string) (RoundResult, []string) {
	sink := rr.Sink
	if sink == nil {
		sink = NopSink{}
	}
	sink.Log(LevelInfo, "Strategy: "+rr.Strategy.String())

	var result RoundResult
	var warnings []string

	for _, path := range paths {
		if Ignored(path, rr.Ignore) {
			sink.Log(LevelWarn, fmt.Sprintf("  %s - skipped (matches ignore pattern)", path))
			warnings = append(warnings, fmt.Sprintf("Skipped %s - requires manual review", path))
			result.Skipped++
			continue
		}

		if err := rr.stage(ctx, stager, sink, path); err != nil {
			sink.Log(LevelError, fmt.Sprintf("  error resolving %s: %v", path, err))
			result.Failed++
			continue
		}
		result.Resolved++
	}

	if result.Failed > 0 {
		sink.Log(LevelError, fmt.Sprintf("Failed to resolve %d file(s)", result.Failed))
	}

	return result, warnings
}

func (rr *RoundResolver) stage(ctx context.Context, stager Stager, sink Sink, path string) error {
	switch rr.Strategy {
	case StrategyOurs:
		if err := stager.CheckoutOurs(ctx, path); err != nil {
			return err
		}
		sink.Log(LevelInfo, fmt.Sprintf("  %s - kept target (base)", path))
	case StrategyTheirs:
		if err := stager.CheckoutTheirs(ctx, path); err != nil {
			return err
		}
		sink.Log(LevelInfo, fmt.Sprintf("  %s - kept source (MR changes)", path))
	}
	return stager.Add(ctx, path)
}
