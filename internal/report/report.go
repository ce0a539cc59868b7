// Package report accumulates the record of one resolution run and renders
// it as a persisted JSON document, an MR comment, and a console summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ResultCode is the terminal outcome of a run.
type ResultCode string

const (
	ResultPending             ResultCode = "PENDING"
	ResultSuccess             ResultCode = "SUCCESS"
	ResultRebaseSuccess       ResultCode = "REBASE_SUCCESS"
	ResultFailed              ResultCode = "FAILED"
	ResultResolutionFailed    ResultCode = "RESOLUTION_FAILED"
	ResultMaxAttemptsExceeded ResultCode = "MAX_ATTEMPTS_EXCEEDED"
	ResultCancelled           ResultCode = "CANCELLED"
)

// Terminal reports whether the code is a final outcome.
func (c ResultCode) Terminal() bool { return c != ResultPending && c != "" }

// MRSummary is the merge-request snapshot embedded in the report.
type MRSummary struct {
	IID          int    `json:"iid"`
	Title        string `json:"title"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	State        string `json:"state"`
	MergeStatus  string `json:"merge_status"`
	Author       string `json:"author"`
	WebURL       string `json:"web_url"`
	HasConflicts bool   `json:"has_conflicts"`
}

// Report is the single mutable aggregate for a run. Narrative fields are
// append-only; the result is written once.
type Report struct {
	Timestamp      time.Time
	MergeRequest   MRSummary
	Environment    string
	Workspace      string
	Strategy       string
	Issues         []string
	Actions        []string
	Warnings       []string
	TerraformFiles []string
	NDOFiles       []string

	result ResultCode
}

func New(environment string) *Report {
	return &Report{
		Timestamp:      time.Now(),
		Environment:    environment,
		Issues:         []string{},
		Actions:        []string{},
		Warnings:       []string{},
		TerraformFiles: []string{},
		NDOFiles:       []string{},
		result:         ResultPending,
	}
}

// SetResult records the terminal outcome. The first terminal write wins;
// later writes are ignored.
func (r *Report) SetResult(code ResultCode) {
	if r.result.Terminal() || !code.Terminal() {
		return
	}
	r.result = code
}

func (r *Report) Result() ResultCode { return r.result }

// Succeeded reports whether the run ended in one of the two success codes.
func (r *Report) Succeeded() bool {
	return r.result == ResultSuccess || r.result == ResultRebaseSuccess
}

func (r *Report) AddIssue(format string, args ...any) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

func (r *Report) AddAction(format string, args ...any) {
	r.Actions = append(r.Actions, fmt.Sprintf(format, args...))
}

func (r *Report) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp      time.Time  `json:"timestamp"`
		MergeRequest   MRSummary  `json:"merge_request"`
		Environment    string     `json:"environment"`
		Issues         []string   `json:"issues_found"`
		Actions        []string   `json:"actions_taken"`
		Warnings       []string   `json:"warnings"`
		TerraformFiles []string   `json:"terraform_files_detected"`
		NDOFiles       []string   `json:"ndo_files_detected"`
		Workspace      string     `json:"workspace,omitempty"`
		Result         ResultCode `json:"result"`
	}{
		Timestamp:      r.Timestamp,
		MergeRequest:   r.MergeRequest,
		Environment:    r.Environment,
		Issues:         r.Issues,
		Actions:        r.Actions,
		Warnings:       r.Warnings,
		TerraformFiles: r.TerraformFiles,
		NDOFiles:       r.NDOFiles,
		Workspace:      r.Workspace,
		Result:         r.result,
	})
}

// Save writes the JSON report into dir, one file per run keyed by MR id,
// and returns the file path.
func (r *Report) Save(dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("mr_%d_fix_report.json", r.MergeRequest.IID))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
