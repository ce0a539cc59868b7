// Package git shells out to the git CLI for the operations a resolution run
// needs. Errors carry the captured output because callers inspect the text.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

type GitRepo struct {
	WorkDir string
	// Env entries are appended to the inherited environment for every
	// command, e.g. GIT_EDITOR=true so rebase never opens an editor.
	Env []string
}

func New(workDir string) *GitRepo {
	return &GitRepo{WorkDir: workDir}
}

func formatCommandError(operation string, err error, stdout, stderr bytes.Buffer) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s failed: %v\nStdout: %s\nStderr: %s",
		operation, err, stdout.String(), stderr.String())
}

func (repo *GitRepo) run(ctx context.Context, operation string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repo.WorkDir
	cmd.Env = append(os.Environ(), repo.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), formatCommandError(operation, err, stdout, stderr)
}
