package git

import (
	"bufio"
	"context"
	"strings"
)

// unmergedCodes are the porcelain v1 two-letter states that mark a path as
// conflicted after a rebase step stops.
var unmergedCodes = map[string]bool{
	"UU": true, "DD": true, "AA": true,
	"AU": true, "UA": true, "DU": true,
	"UD": true, "AD": true, "DA": true,
}

// ConflictedFiles lists paths the current rebase step left unmerged.
func (repo *GitRepo) ConflictedFiles(ctx context.Context) ([]string, error) {
	out, err := repo.run(ctx, "status", "status", "--porcelain=v1")
	if err != nil {
		return nil, err
	}
	return parseConflictedPaths(out), nil
}

func parseConflictedPaths(out string) []string {
	var files []string
	scanner := bufio.NewScanner(strings.NewReader(out))

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 || !unmergedCodes[line[:2]] {
			continue
		}

		path := strings.TrimSpace(line[3:])

		// Git quotes filenames with special characters - remove the quotes
		if strings.HasPrefix(path, "\"") && strings.HasSuffix(path, "\"") {
			path = path[1 : len(path)-1]
		}

		files = append(files, path)
	}

	return files
}
