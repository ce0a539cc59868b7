package git

import "context"

// Fetch updates origin, restricted to the given refs when any are named.
func (repo *GitRepo) Fetch(ctx context.Context, refs ...string) error {
	args := append([]string{"fetch", "origin"}, refs...)
	_, err := repo.run(ctx, "fetch", args...)
	return err
}

func (repo *GitRepo) Checkout(ctx context.Context, ref string) error {
	_, err := repo.run(ctx, "checkout", "checkout", ref)
	return err
}

// Rebase replays the checked-out branch onto the given ref.
func (repo *GitRepo) Rebase(ctx context.Context, onto string) error {
	_, err := repo.run(ctx, "rebase", "rebase", onto)
	return err
}

func (repo *GitRepo) RebaseContinue(ctx context.Context) error {
	_, err := repo.run(ctx, "rebase --continue", "rebase", "--continue")
	return err
}

func (repo *GitRepo) RebaseAbort(ctx context.Context) error {
	_, err := repo.run(ctx, "rebase --abort", "rebase", "--abort")
	return err
}
