package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConflictedPaths(t *testing.T) {
	out := "UU main.tf\n" +
		"AA schema_AAT/config.yaml\n" +
		"DD removed.tf\n" +
		"AU added-by-us.yaml\n" +
		"UA added-by-them.yaml\n" +
		"DU deleted-by-us.tf\n" +
		"UD deleted-by-them.tf\n" +
		"AD staged-then-deleted.tf\n" +
		"DA replaced.tf\n" +
		" M modified.tf\n" +
		"?? untracked.txt\n" +
		"A  staged.tf\n"

	got := parseConflictedPaths(out)

	assert.Equal(t, []string{
		"main.tf",
		"schema_AAT/config.yaml",
		"removed.tf",
		"added-by-us.yaml",
		"added-by-them.yaml",
		"deleted-by-us.tf",
		"deleted-by-them.tf",
		"staged-then-deleted.tf",
		"replaced.tf",
	}, got)
}

func TestParseConflictedPathsUnquotes(t *testing.T) {
	got := parseConflictedPaths("UU \"path with spaces/main.tf\"\n")
	assert.Equal(t, []string{"path with spaces/main.tf"}, got)
}

func TestParseConflictedPathsEmpty(t *testing.T) {
	assert.Empty(t, parseConflictedPaths(""))
	assert.Empty(t, parseConflictedPaths(" M file.txt\nUU\n"))
}
