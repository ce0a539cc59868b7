package resolve

import "strings"

// Tags classifies a conflicted path for reporting. A path may carry both
// tags, or neither.
type Tags struct {
	Terraform bool
	Schema    bool
}

// schemaKeywords mark YAML documents that belong to the NDO schema
// workspaces.
var schemaKeywords = []string{"schema", "ndo"}

// Classify inspects only the path text, never file contents.
func Classify(path string) Tags {
	var tags Tags

	if strings.HasSuffix(path, ".tf") || strings.Contains(path, ".terraform") {
		tags.Terraform = true
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		lower := strings.ToLower(path)
		for _, keyword := range schemaKeywords {
			if strings.Contains(lower, keyword) {
				tags.Schema = true
				break
			}
		}
	}

	return tags
}
