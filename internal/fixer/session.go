// Package fixer drives the pipeline for one merge request: authenticate,
// load MR details, clone and rebase, then publish the outcome.
package fixer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"mrfix/internal/config"
	"mrfix/internal/git"
	"mrfix/internal/gitlab"
	"mrfix/internal/report"
	"mrfix/internal/resolve"
	"mrfix/internal/workspace"
)

// ErrNoToken means every credential source came up empty.
var ErrNoToken = errors.New("no token found in any source (set GITLAB_TOKEN, GITLAB_PRIVATE_TOKEN or CI_JOB_TOKEN)")

// Session owns the state of one fix run. Sessions are single-use.
type Session struct {
	cfg    *config.Config
	client *gitlab.Client
	rep    *report.Report
	cancel *resolve.CancelToken
	sink   resolve.Sink

	token   string
	project *gitlab.Project
	mr      *gitlab.MergeRequest
}

// New prepares a session. A nil sink discards all output.
func New(cfg *config.Config, sink resolve.Sink) *Session {
	if sink == nil {
		sink = resolve.NopSink{}
	}
	rep := report.New(cfg.Environment)
	rep.Strategy = cfg.Resolution.Strategy
	return &Session{
		cfg:    cfg,
		rep:    rep,
		cancel: &resolve.CancelToken{},
		sink:   sink,
	}
}

// Report exposes the run record for rendering.
func (s *Session) Report() *report.Report { return s.rep }

// Cancel requests a stop at the next conflict-round boundary.
func (s *Session) Cancel() { s.cancel.Cancel() }

// Authenticate resolves a token, builds the API client and verifies it
// against the current user and the configured project.
func (s *Session) Authenticate(ctx context.Context) error {
	s.logf(resolve.LevelInfo, "Attempting authentication...")

	token, source := s.cfg.ResolveToken()
	if token == "" {
		return ErrNoToken
	}
	s.token = token
	s.logf(resolve.LevelInfo, "Using %s", source)

	if !s.cfg.SSLVerify {
		s.logf(resolve.LevelWarn, "SSL verification disabled (corporate network mode)")
	}
	if s.cfg.BypassProxy {
		s.logf(resolve.LevelInfo, "Proxy bypass enabled")
	}

	if s.client == nil {
		s.client = gitlab.New(s.cfg.APIURL, s.cfg.ProjectID, token, s.cfg.SSLVerify, s.cfg.BypassProxy)
	}

	if _, err := s.client.CurrentUser(ctx); err != nil {
		return fmt.Errorf("verify token: %w", err)
	}

	project, err := s.client.Project(ctx)
	if err != nil {
		return fmt.Errorf("load project %s: %w", s.cfg.ProjectID, err)
	}
	s.project = project
	s.logf(resolve.LevelInfo, "Connected to GitLab project: %s", project.PathWithNamespace)
	return nil
}

// LoadMergeRequest fetches the MR and snapshots it into the report.
func (s *Session) LoadMergeRequest(ctx context.Context, iid int) (*gitlab.MergeRequest, error) {
	mr, err := s.client.MergeRequest(ctx, iid)
	if err != nil {
		return nil, fmt.Errorf("get MR !%d: %w", iid, err)
	}
	s.mr = mr

	author := mr.Author.Username
	if author == "" {
		author = "unknown"
	}
	s.rep.MergeRequest = report.MRSummary{
		IID:          mr.IID,
		Title:        mr.Title,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		State:        mr.State,
		MergeStatus:  mr.MergeStatus,
		Author:       author,
		WebURL:       mr.WebURL,
		HasConflicts: mr.HasMergeConflicts(),
	}

	s.logf(resolve.LevelInfo, "MR !%d: %s", mr.IID, mr.Title)
	s.logf(resolve.LevelInfo, "Source: %s -> Target: %s", mr.SourceBranch, mr.TargetBranch)
	s.logf(resolve.LevelInfo, "Status: %s", mr.MergeStatus)
	s.logf(resolve.LevelInfo, "Author: %s", author)

	if mr.HasMergeConflicts() {
		s.rep.AddIssue("Merge conflicts detected")
		s.logf(resolve.LevelWarn, "Merge conflicts detected")
	}
	return mr, nil
}

// FixConflicts clones the repository into a scratch directory and runs the
// rebase loop. The terminal outcome is recorded on the report; the returned
// error carries detail for callers that want it.
func (s *Session) FixConflicts(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "mrfix-")
	if err != nil {
		s.rep.SetResult(report.ResultFailed)
		return fmt.Errorf("create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logf(resolve.LevelWarn, "Failed to clean up: %v", err)
			return
		}
		s.logf(resolve.LevelInfo, "Cleaned up temporary directory")
	}()
	s.logf(resolve.LevelInfo, "Working directory: %s", dir)

	if err := s.fix(ctx, dir); err != nil {
		// The orchestrator records and logs its own terminal outcomes;
		// anything still pending here failed during setup.
		if !s.rep.Result().Terminal() {
			s.logf(resolve.LevelError, "Error fixing conflicts: %s", s.redact(err.Error()))
			s.rep.SetResult(report.ResultFailed)
		}
		return err
	}
	return nil
}

func (s *Session) fix(ctx context.Context, dir string) error {
	if s.mr == nil {
		return errors.New("merge request not loaded")
	}
	mr := s.mr

	if s.token == "" {
		token, _ := s.cfg.ResolveToken()
		if token == "" {
			return ErrNoToken
		}
		s.token = token
	}

	name, email := authorIdentity(mr)
	authURL, displayURL := s.cloneURLs()

	s.logf(resolve.LevelInfo, "Cloning repository (this may take a moment)...")
	s.logf(resolve.LevelInfo, "Cloning from: %s", displayURL)

	repo, err := git.CloneBranch(ctx, authURL, dir, mr.SourceBranch, s.gitEnv())
	if err != nil {
		return err
	}
	s.logf(resolve.LevelInfo, "Repository cloned")

	if err := repo.SetUser(ctx, name, email); err != nil {
		return err
	}
	s.logf(resolve.LevelInfo, "Git configured with author: %s <%s>", name, email)

	s.logf(resolve.LevelInfo, "Detecting workspace...")
	if ws := s.detectWorkspace(dir); ws != "" {
		s.logf(resolve.LevelInfo, "Detected workspace: %s", ws)
		s.rep.Workspace = ws
	}

	s.logf(resolve.LevelInfo, "Fetching branches...")
	if err := repo.Fetch(ctx, mr.SourceBranch, mr.TargetBranch); err != nil {
		return err
	}
	s.logf(resolve.LevelInfo, "Fetched")

	strategy, err := resolve.ParseStrategy(s.cfg.Resolution.Strategy)
	if err != nil {
		return err
	}

	s.logf(resolve.LevelInfo, "Attempting rebase...")
	orch := &resolve.Orchestrator{
		Git:      repo,
		Report:   s.rep,
		Strategy: strategy,
		Ignore:   s.cfg.Resolution.IgnoreFiles,
		Cancel:   s.cancel,
		Sink:     s.sink,
	}
	return orch.Run(ctx, mr.SourceBranch, mr.TargetBranch)
}

// PostUpdate comments the outcome on the MR. Posting failures are logged
// and never alter the recorded result.
func (s *Session) PostUpdate(ctx context.Context, iid int) {
	if s.client == nil {
		return
	}
	if err := s.client.PostComment(ctx, iid, s.rep.Comment()); err != nil {
		s.logf(resolve.LevelError, "Failed to post update: %v", err)
		return
	}
	s.logf(resolve.LevelInfo, "Posted update to MR !%d", iid)
}

// SaveReport writes the JSON document into the configured report directory.
func (s *Session) SaveReport() {
	path, err := s.rep.Save(s.cfg.ReportDir)
	if err != nil {
		s.logf(resolve.LevelError, "Failed to save report: %v", err)
		return
	}
	s.logf(resolve.LevelInfo, "Report saved: %s", path)
}

// Run executes the full pipeline for one MR reference and returns the
// process exit code: zero only when the run ends in a success code.
func (s *Session) Run(ctx context.Context, ref string) int {
	iid, err := gitlab.ParseMRRef(ref)
	if err != nil {
		s.logf(resolve.LevelError, "%v", err)
		return 1
	}

	if err := s.Authenticate(ctx); err != nil {
		s.logf(resolve.LevelError, "Authentication failed: %v", err)
		return 1
	}
	if _, err := s.LoadMergeRequest(ctx, iid); err != nil {
		s.logf(resolve.LevelError, "Failed to get MR: %v", err)
		return 1
	}

	return s.Finish(ctx)
}

// Finish fixes an already-loaded MR, posts the outcome and saves the
// report. Exit code semantics match Run.
func (s *Session) Finish(ctx context.Context) int {
	if s.mr == nil {
		s.logf(resolve.LevelError, "No merge request loaded")
		return 1
	}

	s.logf(resolve.LevelInfo, "Attempting to fix merge conflicts...")
	_ = s.FixConflicts(ctx)

	s.PostUpdate(ctx, s.mr.IID)
	s.SaveReport()

	if s.rep.Succeeded() {
		return 0
	}
	return 1
}

// Analyze authenticates and loads the MR without touching any branch.
func (s *Session) Analyze(ctx context.Context, ref string) (*gitlab.MergeRequest, error) {
	iid, err := gitlab.ParseMRRef(ref)
	if err != nil {
		return nil, err
	}
	if err := s.Authenticate(ctx); err != nil {
		return nil, err
	}
	return s.LoadMergeRequest(ctx, iid)
}

// cloneURLs builds the clone URL with oauth2 credentials injected and a
// token-free twin for logging.
func (s *Session) cloneURLs() (auth, display string) {
	projectPath := s.cfg.ProjectID
	if s.project != nil && s.project.PathWithNamespace != "" {
		projectPath = s.project.PathWithNamespace
	}

	repoURL := s.cfg.GitLabURL
	var base string
	if strings.Contains(repoURL, "https://") {
		base = strings.Replace(repoURL, "https://", "https://oauth2:"+s.token+"@", 1)
	} else {
		base = "https://oauth2:" + s.token + "@" + repoURL
	}

	if strings.HasSuffix(base, ".git") {
		auth = base
	} else {
		auth = base + "/" + projectPath + ".git"
	}
	display = strings.TrimSuffix(repoURL, "/") + "/" + projectPath + ".git"
	return auth, display
}

// gitEnv hardens git for unattended runs: no editor, no prompts, TLS and
// proxy behavior matching the API client settings.
func (s *Session) gitEnv() []string {
	env := []string{"GIT_EDITOR=true", "GIT_TERMINAL_PROMPT=0"}
	if !s.cfg.SSLVerify {
		env = append(env, "GIT_SSL_NO_VERIFY=1")
	}
	if s.cfg.BypassProxy {
		env = append(env, "NO_PROXY=*")
	}
	return env
}

// detectWorkspace is best-effort: any failure means "not detected".
func (s *Session) detectWorkspace(dir string) string {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		s.logf(resolve.LevelDebug, "Workspace detection skipped: %v", err)
		return ""
	}
	ws, err := workspace.Detect(repo, s.cfg.Workspaces)
	if err != nil {
		s.logf(resolve.LevelDebug, "Workspace detection skipped: %v", err)
		return ""
	}
	return ws
}

// authorIdentity derives the commit identity from the MR author so rebased
// commits stay attributed to the author, not the tool.
func authorIdentity(mr *gitlab.MergeRequest) (name, email string) {
	name = mr.Author.Name
	if name == "" {
		name = "MR Author"
	}
	username := mr.Author.Username
	if username == "" {
		username = "mrauthor"
	}
	return name, username + "@gitlab.local"
}

// redact strips the credential from text bound for logs.
func (s *Session) redact(text string) string {
	if s.token == "" {
		return text
	}
	return strings.ReplaceAll(text, s.token, "****")
}

func (s *Session) logf(level resolve.Level, format string, args ...any) {
	s.sink.Log(level, fmt.Sprintf(format, args...))
}
