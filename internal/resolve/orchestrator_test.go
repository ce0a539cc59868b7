package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mrfix/internal/report"
)

var errConflict = errors.New("rebase failed: exit status 1\nStdout: \nStderr: CONFLICT (content): Merge conflict in main.tf")

type rebaseStep struct {
	err       error
	conflicts []string
}

// fakeGit scripts one rebase outcome per attempt. Attempts beyond the
// script succeed. With alwaysConflict set every attempt conflicts on the
// same file.
type fakeGit struct {
	script         []rebaseStep
	alwaysConflict bool
	checkoutErr    error
	pushErr        error
	abortErr       error
	cancelOnStage  *CancelToken

	step      int
	checkouts []string
	rebasedOn []string
	continues int
	aborts    int
	pushes    []string
	ours      []string
	theirs    []string
	added     []string
}

func (f *fakeGit) Checkout(_ context.Context, ref string) error {
	f.checkouts = append(f.checkouts, ref)
	return f.checkoutErr
}

func (f *fakeGit) Rebase(_ context.Context, onto string) error {
	f.rebasedOn = append(f.rebasedOn, onto)
	return f.nextStep()
}

func (f *fakeGit) RebaseContinue(context.Context) error {
	f.continues++
	return f.nextStep()
}

func (f *fakeGit) nextStep() error {
	defer func() { f.step++ }()
	if f.alwaysConflict {
		return errConflict
	}
	if f.step < len(f.script) {
		return f.script[f.step].err
	}
	return nil
}

func (f *fakeGit) ConflictedFiles(context.Context) ([]string, error) {
	if f.alwaysConflict {
		return []string{"loop.tf"}, nil
	}
	idx := f.step - 1
	if idx >= 0 && idx < len(f.script) {
		return f.script[idx].conflicts, nil
	}
	return nil, nil
}

func (f *fakeGit) RebaseAbort(context.Context) error {
	f.aborts++
	return f.abortErr
}

func (f *fakeGit) ForcePush(_ context.Context, branch string) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, branch)
	return nil
}

func (f *fakeGit) CheckoutOurs(_ context.Context, path string) error {
	f.ours = append(f.ours, path)
	return nil
}

func (f *fakeGit) CheckoutTheirs(_ context.Context, path string) error {
	if f.cancelOnStage != nil {
		f.cancelOnStage.Cancel()
	}
	f.theirs = append(f.theirs, path)
	return nil
}

func (f *fakeGit) Add(_ context.Context, path string) error {
	f.added = append(f.added, path)
	return nil
}

type recordingSink struct {
	lines    []string
	progress []string
}

func (s *recordingSink) Log(level Level, msg string) {
	s.lines = append(s.lines, level.String()+": "+msg)
}

func (s *recordingSink) Progress(msg string) {
	s.progress = append(s.progress, msg)
}

func newOrchestrator(g *fakeGit) (*Orchestrator, *report.Report, *recordingSink) {
	rep := report.New("Terraform")
	sink := &recordingSink{}
	o := &Orchestrator{
		Git:      g,
		Report:   rep,
		Strategy: StrategyTheirs,
		Sink:     sink,
	}
	return o, rep, sink
}

func TestRunNoConflicts(t *testing.T) {
	g := &fakeGit{}
	o, rep, sink := newOrchestrator(g)

	err := o.Run(context.Background(), "feature/x", "main")
	require.NoError(t, err)

	assert.Equal(t, report.ResultRebaseSuccess, rep.Result())
	assert.Equal(t, []string{"feature/x"}, g.checkouts)
	assert.Equal(t, []string{"origin/main"}, g.rebasedOn)
	assert.Equal(t, []string{"feature/x"}, g.pushes)
	assert.Zero(t, g.aborts)
	assert.Equal(t, []string{
		"Rebase successful without conflicts",
		"Force pushed feature/x",
	}, rep.Actions)
	assert.Equal(t, []string{"Rebase attempt 1/10"}, sink.progress)
}

func TestRunMultiRoundSuccess(t *testing.T) {
	g := &fakeGit{script: []rebaseStep{
		{err: errConflict, conflicts: []string{"a.tf", "b.tf"}},
		{err: errConflict, conflicts: []string{"schema_AAT/c.yaml"}},
		{err: nil},
	}}
	o, rep, sink := newOrchestrator(g)

	err := o.Run(context.Background(), "feature/x", "main")
	require.NoError(t, err)

	assert.Equal(t, report.ResultSuccess, rep.Result())
	assert.Equal(t, 2, g.continues)
	assert.Equal(t, []string{"a.tf", "b.tf", "schema_AAT/c.yaml"}, g.theirs)
	assert.Equal(t, []string{"feature/x"}, g.pushes)
	assert.Equal(t, []string{
		"Resolved 3 conflicting files across 2 conflict rounds",
		"Force pushed feature/x",
	}, rep.Actions)
	assert.Equal(t, []string{"a.tf", "b.tf"}, rep.TerraformFiles)
	assert.Equal(t, []string{"schema_AAT/c.yaml"}, rep.NDOFiles)
	assert.Equal(t, []string{
		"Rebase attempt 1/10",
		"Rebase attempt 2/10",
		"Rebase attempt 3/10",
	}, sink.progress)
}

func TestRunRoundFailureAborts(t *testing.T) {
	g := &fakeGit{script: []rebaseStep{
		{err: errConflict, conflicts: []string{"a.tf", "b.tf"}},
	}}
	o, rep, _ := newOrchestrator(g)
	o.Strategy = StrategyOurs

	// make staging fail on the second file only
	failing := &stageFailGit{fakeGit: g, fail: "b.tf"}
	o.Git = failing

	err := o.Run(context.Background(), "feature/x", "main")
	require.ErrorIs(t, err, ErrRoundFailed)

	assert.Equal(t, report.ResultResolutionFailed, rep.Result())
	assert.Equal(t, 1, g.aborts)
	assert.Empty(t, g.pushes)
	assert.Zero(t, g.continues)
}

// stageFailGit fails CheckoutOurs for one path.
type stageFailGit struct {
	*fakeGit
	fail string
}

func (s *stageFailGit) CheckoutOurs(ctx context.Context, path string) error {
	if path == s.fail {
		return errors.New("checkout --ours failed")
	}
	return s.fakeGit.CheckoutOurs(ctx, path)
}

func TestRunMaxAttempts(t *testing.T) {
	g := &fakeGit{alwaysConflict: true}
	o, rep, sink := newOrchestrator(g)

	err := o.Run(context.Background(), "feature/x", "main")
	require.ErrorIs(t, err, ErrMaxAttempts)

	assert.Equal(t, report.ResultMaxAttemptsExceeded, rep.Result())
	assert.Equal(t, 10, g.step, "exactly ten rebase attempts")
	assert.Equal(t, 9, g.continues)
	assert.Len(t, g.added, 10, "one resolution per round")
	assert.Equal(t, 1, g.aborts)
	assert.Empty(t, g.pushes)
	assert.Len(t, sink.progress, 10)
}

func TestRunMaxAttemptsSwallowsAbortError(t *testing.T) {
	g := &fakeGit{alwaysConflict: true, abortErr: errors.New("abort failed")}
	o, rep, _ := newOrchestrator(g)

	err := o.Run(context.Background(), "feature/x", "main")
	require.ErrorIs(t, err, ErrMaxAttempts)
	assert.Equal(t, report.ResultMaxAttemptsExceeded, rep.Result())
}

func TestRunCancelledBeforeFirstRound(t *testing.T) {
	g := &fakeGit{alwaysConflict: true}
	o, rep, _ := newOrchestrator(g)
	o.Cancel = &CancelToken{}
	o.Cancel.Cancel()

	err := o.Run(context.Background(), "feature/x", "main")
	require.ErrorIs(t, err, ErrCancelled)

	assert.Equal(t, report.ResultCancelled, rep.Result())
	assert.Zero(t, g.step, "no rebase attempted after cancellation")
	assert.Equal(t, 1, g.aborts)
	assert.Empty(t, g.pushes)
}

func TestRunCancelledBetweenRounds(t *testing.T) {
	token := &CancelToken{}
	g := &fakeGit{
		script: []rebaseStep{
			{err: errConflict, conflicts: []string{"a.tf"}},
			{err: errConflict, conflicts: []string{"b.tf"}},
		},
		cancelOnStage: token,
	}
	o, rep, _ := newOrchestrator(g)
	o.Cancel = token

	err := o.Run(context.Background(), "feature/x", "main")
	require.ErrorIs(t, err, ErrCancelled)

	assert.Equal(t, report.ResultCancelled, rep.Result())
	assert.Equal(t, 1, g.step, "round two never starts")
	assert.Zero(t, g.continues)
	assert.Equal(t, []string{"a.tf"}, g.theirs)
}

func TestRunRebaseNoiseIsImplicitSuccess(t *testing.T) {
	for _, marker := range []string{
		"fatal: No rebase in progress?",
		"nothing to commit, working tree clean",
	} {
		g := &fakeGit{script: []rebaseStep{
			{err: errors.New("rebase --continue failed: " + marker)},
		}}
		o, rep, _ := newOrchestrator(g)

		err := o.Run(context.Background(), "feature/x", "main")
		require.NoError(t, err, marker)

		assert.Equal(t, report.ResultSuccess, rep.Result())
		assert.Equal(t, []string{"feature/x"}, g.pushes)
		assert.Zero(t, g.aborts)
		assert.Equal(t, []string{
			"Resolved 0 conflicting files",
			"Force pushed feature/x",
		}, rep.Actions)
	}
}

func TestRunGenuineErrorWithoutConflicts(t *testing.T) {
	g := &fakeGit{script: []rebaseStep{
		{err: errors.New("rebase failed: could not apply deadbeef")},
	}}
	o, rep, _ := newOrchestrator(g)

	err := o.Run(context.Background(), "feature/x", "main")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRoundFailed)

	assert.Equal(t, report.ResultFailed, rep.Result())
	assert.Equal(t, 1, g.aborts)
	assert.Empty(t, g.pushes)
}

func TestRunPushFailure(t *testing.T) {
	g := &fakeGit{pushErr: errors.New("remote rejected")}
	o, rep, _ := newOrchestrator(g)

	err := o.Run(context.Background(), "feature/x", "main")
	require.Error(t, err)
	assert.Equal(t, report.ResultFailed, rep.Result())
}

func TestRunCheckoutFailure(t *testing.T) {
	g := &fakeGit{checkoutErr: errors.New("pathspec did not match")}
	o, rep, _ := newOrchestrator(g)

	err := o.Run(context.Background(), "feature/x", "main")
	require.Error(t, err)
	assert.Equal(t, report.ResultFailed, rep.Result())
	assert.Zero(t, g.step)
}

// panickySink logs normally but panics on progress updates.
type panickySink struct {
	recordingSink
}

func (s *panickySink) Progress(string) { panic("observer exploded") }

func TestRunSurvivesPanickingObserver(t *testing.T) {
	g := &fakeGit{}
	rep := report.New("Terraform")
	o := &Orchestrator{Git: g, Report: rep, Strategy: StrategyTheirs, Sink: &panickySink{}}

	err := o.Run(context.Background(), "feature/x", "main")
	require.NoError(t, err)
	assert.Equal(t, report.ResultRebaseSuccess, rep.Result())
}

func TestRunIgnoredFilesSkippedAndWarned(t *testing.T) {
	g := &fakeGit{script: []rebaseStep{
		{err: errConflict, conflicts: []string{"main.tf", "schema_AAT/config.yaml", "README.md"}},
		{err: nil},
	}}
	o, rep, _ := newOrchestrator(g)
	o.Ignore = []string{"README*"}

	err := o.Run(context.Background(), "feature/x", "main")
	require.NoError(t, err)

	assert.Equal(t, report.ResultSuccess, rep.Result())
	assert.Equal(t, []string{"main.tf", "schema_AAT/config.yaml"}, g.theirs)
	assert.Equal(t, []string{"Skipped README.md - requires manual review"}, rep.Warnings)
	assert.Equal(t, []string{"main.tf"}, rep.TerraformFiles)
	assert.Equal(t, []string{"schema_AAT/config.yaml"}, rep.NDOFiles)
	assert.Contains(t, rep.Actions[0], "Resolved 2 conflicting files across 1 conflict rounds")
}
