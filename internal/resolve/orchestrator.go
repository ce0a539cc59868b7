package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"mrfix/internal/report"
)

// maxAttempts bounds the rebase rounds. An MR whose commits each conflict
// gets one round per commit; past this many the branch needs a human.
const maxAttempts = 10

// transientRebaseNoise lists error fragments git emits when a rebase has in
// fact already finished. The match is deliberately narrow; do not broaden
// it into general error classification.
var transientRebaseNoise = []string{
	"No rebase in progress",
	"nothing to commit",
}

var (
	ErrCancelled   = errors.New("resolution cancelled")
	ErrRoundFailed = errors.New("conflict round failed")
	ErrMaxAttempts = errors.New("conflict rounds exceeded the attempt cap")
)

// CancelToken asks a running orchestrator to stop. It is polled at round
// boundaries only; in-flight git commands are never interrupted. The token
// is never reset within a run.
type CancelToken struct {
	flag atomic.Bool
}

func (t *CancelToken) Cancel()         { t.flag.Store(true) }
func (t *CancelToken) Cancelled() bool { return t.flag.Load() }

// Git is the version-control capability the orchestrator drives.
type Git interface {
	Stager
	Checkout(ctx context.Context, ref string) error
	Rebase(ctx context.Context, onto string) error
	RebaseContinue(ctx context.Context) error
	RebaseAbort(ctx context.Context) error
	ConflictedFiles(ctx context.Context) ([]string, error)
	ForcePush(ctx context.Context, branch string) error
}

// Orchestrator drives one bounded rebase-and-resolve loop over a working
// copy whose branches are already fetched.
type Orchestrator struct {
	Git      Git
	Report   *report.Report
	Strategy Strategy
	Ignore   []string
	Cancel   *CancelToken
	Sink     Sink
}

// Run rebases source onto origin/<target>, resolving conflict rounds until
// the rebase completes, fails, is cancelled, or hits the attempt cap. On
// success the rewritten branch is force-pushed, destructively replacing the
// remote history. The terminal result is recorded on the report; the
// returned error carries the failure detail.
func (o *Orchestrator) Run(ctx context.Context, source, target string) error {
	if o.Sink == nil {
		o.Sink = NopSink{}
	}
	resolver := &RoundResolver{Strategy: o.Strategy, Ignore: o.Ignore, Sink: o.Sink}

	if err := o.Git.Checkout(ctx, source); err != nil {
		o.Report.SetResult(report.ResultFailed)
		return err
	}
	o.logf(LevelInfo, "Checked out: %s", source)

	totalResolved := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if o.Cancel != nil && o.Cancel.Cancelled() {
			o.logf(LevelWarn, "Cancellation requested - aborting rebase")
			o.abort(ctx)
			o.Report.SetResult(report.ResultCancelled)
			return ErrCancelled
		}

		o.notifyProgress(fmt.Sprintf("Rebase attempt %d/%d", attempt, maxAttempts))

		var rebaseErr error
		if attempt == 1 {
			o.logf(LevelInfo, "Rebasing %s onto origin/%s...", source, target)
			rebaseErr = o.Git.Rebase(ctx, "origin/"+target)
		} else {
			o.logf(LevelInfo, "Continuing rebase...")
			rebaseErr = o.Git.RebaseContinue(ctx)
		}

		if rebaseErr == nil {
			o.logf(LevelInfo, "Rebase completed successfully")
			return o.publish(ctx, source, totalResolved, attempt-1)
		}

		conflicted, err := o.Git.ConflictedFiles(ctx)
		if err != nil {
			o.logf(LevelError, "Error detecting conflicts: %v", err)
		}

		if len(conflicted) == 0 {
			if isRebaseNoise(rebaseErr) {
				// The rebase finished even though git reported an
				// error; publish what we have.
				o.logf(LevelInfo, "Rebase already completed")
				if err := o.Git.ForcePush(ctx, source); err != nil {
					o.logf(LevelError, "Failed to push: %v", err)
					o.Report.SetResult(report.ResultFailed)
					return err
				}
				o.Report.AddAction("Resolved %d conflicting files", totalResolved)
				o.Report.AddAction("Force pushed %s", source)
				o.Report.SetResult(report.ResultSuccess)
				return nil
			}
			o.logf(LevelError, "Rebase failed without conflicts: %v", rebaseErr)
			o.abort(ctx)
			o.Report.SetResult(report.ResultFailed)
			return rebaseErr
		}

		o.logf(LevelWarn, "Conflict round %d detected with %d file(s)", attempt, len(conflicted))
		for _, path := range conflicted {
			o.logf(LevelInfo, "   - %s", path)
		}
		o.recordFileTypes(conflicted)

		o.logf(LevelInfo, "Resolving %d conflicts...", len(conflicted))
		result, warnings := resolver.Resolve(ctx, o.Git, conflicted)
		for _, warning := range warnings {
			o.Report.AddWarning("%s", warning)
		}

		if result.Failure() {
			o.logf(LevelError, "Failed to resolve conflicts")
			o.abort(ctx)
			o.Report.SetResult(report.ResultResolutionFailed)
			return ErrRoundFailed
		}

		totalResolved += result.Resolved
		o.logf(LevelInfo, "Resolved %d file(s) in round %d", result.Resolved, attempt)
	}

	o.logf(LevelError, "Rebase failed after %d conflict rounds", maxAttempts)
	o.Report.SetResult(report.ResultMaxAttemptsExceeded)
	o.abort(ctx)
	return ErrMaxAttempts
}

// publish force-pushes the rebased branch and records the outcome. rounds
// is how many conflict rounds ran before the rebase completed.
func (o *Orchestrator) publish(ctx context.Context, source string, totalResolved, rounds int) error {
	o.logf(LevelInfo, "Force pushing to %s...", source)
	if err := o.Git.ForcePush(ctx, source); err != nil {
		o.logf(LevelError, "Failed to push: %v", err)
		o.Report.SetResult(report.ResultFailed)
		return err
	}
	o.logf(LevelInfo, "Force pushed")

	if totalResolved > 0 {
		o.Report.AddAction("Resolved %d conflicting files across %d conflict rounds", totalResolved, rounds)
		o.Report.SetResult(report.ResultSuccess)
	} else {
		o.Report.AddAction("Rebase successful without conflicts")
		o.Report.SetResult(report.ResultRebaseSuccess)
	}
	o.Report.AddAction("Force pushed %s", source)
	return nil
}

func (o *Orchestrator) recordFileTypes(paths []string) {
	for _, path := range paths {
		tags := Classify(path)
		if tags.Terraform {
			o.Report.TerraformFiles = append(o.Report.TerraformFiles, path)
			o.logf(LevelWarn, "  Terraform file: %s", path)
		}
		if tags.Schema {
			o.Report.NDOFiles = append(o.Report.NDOFiles, path)
			o.logf(LevelWarn, "  NDO schema file: %s", path)
		}
	}
}

// notifyProgress shields the loop from a panicking observer; progress is
// advisory and must never abort the state machine.
func (o *Orchestrator) notifyProgress(msg string) {
	defer func() {
		if r := recover(); r != nil {
			o.logf(LevelDebug, "progress observer error: %v", r)
		}
	}()
	o.Sink.Progress(msg)
}

// abort is best-effort; a failed abort never masks the primary error.
func (o *Orchestrator) abort(ctx context.Context) {
	if err := o.Git.RebaseAbort(ctx); err != nil {
		o.logf(LevelDebug, "rebase abort: %v", err)
	}
}

func (o *Orchestrator) logf(level Level, format string, args ...any) {
	o.Sink.Log(level, fmt.Sprintf(format, args...))
}

func isRebaseNoise(err error) bool {
	msg := err.Error()
	for _, marker := range transientRebaseNoise {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
