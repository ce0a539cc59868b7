package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"fix 15", []string{"fix", "15"}},
		{`fix "https://gitlab.example.com/nac/infra/-/merge_requests/15"`,
			[]string{"fix", "https://gitlab.example.com/nac/infra/-/merge_requests/15"}},
		{"analyze  15", []string{"analyze", "15"}},
		{"fix '15'", []string{"fix", "15"}},
		{"", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCommandLine(tt.input), "input: %q", tt.input)
	}
}

func TestGetCommandNamesExcludesShell(t *testing.T) {
	names := getCommandNames()

	assert.Contains(t, names, "fix")
	assert.Contains(t, names, "analyze")
	assert.Contains(t, names, "ui")
	assert.NotContains(t, names, "shell")
}
