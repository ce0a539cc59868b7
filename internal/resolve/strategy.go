package resolve

import (
	"fmt"
	"strings"
)

// Strategy selects which whole-file side wins a conflicted path. There is
// no line-level merging; schema documents are not safely line-mergeable.
type Strategy int

const (
	// StrategyOurs keeps the target branch copy. During a rebase git's
	// "ours" is the branch being rebased onto.
	StrategyOurs Strategy = iota
	// StrategyTheirs keeps the MR source branch copy, git's "theirs"
	// while its commits are replayed.
	StrategyTheirs
)

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "ours":
		return StrategyOurs, nil
	case "theirs":
		return StrategyTheirs, nil
	}
	return 0, fmt.Errorf("unknown resolution strategy %q", s)
}

func (s Strategy) String() string {
	if s == StrategyOurs {
		return "ours"
	}
	return "theirs"
}

// Ignored reports whether path matches any ignore pattern. The match is
// loose containment: the pattern with wildcards stripped, or the raw
// pattern, appearing anywhere in the path.
func Ignored(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(path, strings.ReplaceAll(pattern, "*", "")) ||
			strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
