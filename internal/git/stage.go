package git

import "context"

// CheckoutOurs replaces the conflicted file with the version from the side
// being rebased onto. During a rebase "ours" is the target branch.
func (repo *GitRepo) CheckoutOurs(ctx context.Context, path string) error {
	_, err := repo.run(ctx, "checkout --ours", "checkout", "--ours", "--", path)
	return err
}

// CheckoutTheirs replaces the conflicted file with the version from the
// branch being replayed. During a rebase "theirs" is the source branch.
func (repo *GitRepo) CheckoutTheirs(ctx context.Context, path string) error {
	_, err := repo.run(ctx, "checkout --theirs", "checkout", "--theirs", "--", path)
	return err
}

func (repo *GitRepo) Add(ctx context.Context, path string) error {
	_, err := repo.run(ctx, "add", "add", "--", path)
	return err
}
