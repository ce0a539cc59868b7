// Package workspace identifies which schema workspace a clone touches by
// inspecting the committed tree.
package workspace

import (
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Detect walks the HEAD commit tree looking for terraform files and returns
// the first path segment that names a known workspace. Detection is
// best-effort: an empty result means no workspace could be identified.
func Detect(repo *git.Repository, known []string) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", err
	}
	tree, err := commit.Tree()
	if err != nil {
		return "", err
	}

	knownSet := make(map[string]bool, len(known))
	for _, name := range known {
		knownSet[name] = true
	}

	var found string
	err = tree.Files().ForEach(func(f *object.File) error {
		if found != "" {
			return nil
		}
		if !strings.HasSuffix(f.Name, ".tf") {
			return nil
		}
		for _, part := range strings.Split(f.Name, "/") {
			if strings.HasPrefix(part, "schema_") && knownSet[part] {
				found = part
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}
