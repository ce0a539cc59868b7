package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// CloneBranch clones url at branch into dir. All remote branches are kept so
// the rebase target can be fetched later.
func CloneBranch(ctx context.Context, url, dir, branch string, env []string) (*GitRepo, error) {
	cmd := exec.CommandContext(ctx, "git", "clone", "--branch", branch, "--no-single-branch", url, dir)
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, formatCommandError("clone", err, stdout, stderr)
	}
	return &GitRepo{WorkDir: dir, Env: env}, nil
}

// SetUser sets the commit identity for the working copy only.
func (repo *GitRepo) SetUser(ctx context.Context, name, email string) error {
	if _, err := repo.run(ctx, "config user.name", "config", "user.name", name); err != nil {
		return err
	}
	_, err := repo.run(ctx, "config user.email", "config", "user.email", email)
	return err
}

// ForcePush overwrites the remote branch with the local one.
func (repo *GitRepo) ForcePush(ctx context.Context, branch string) error {
	_, err := repo.run(ctx, "force push", "push", "--force", "origin", branch)
	return err
}
