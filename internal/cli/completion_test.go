package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateCompletion(t *testing.T) {
	t.Parallel()

	backends := []string{"bigfloat", "process"}
	regions := []string{"classic", "seahorse_valley"}

	tests := []struct {
		shell    string
		contains []string
	}{
		{"bash", []string{"_mandelgrid_completions", "bigfloat process", "classic seahorse_valley", "--backend"}},
		{"zsh", []string{"#compdef mandelgrid", "bigfloat process", "--zoom-factor"}},
		{"fish", []string{"complete -c mandelgrid", "bigfloat process", "escape-radius"}},
		{"powershell", []string{"Register-ArgumentCompleter", "'bigfloat', 'process'"}},
		{"ps", []string{"Register-ArgumentCompleter"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.shell, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			if err := GenerateCompletion(&out, tc.shell, backends, regions); err != nil {
				t.Fatalf("GenerateCompletion(%q) failed: %v", tc.shell, err)
			}
			for _, want := range tc.contains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("%s script missing %q", tc.shell, want)
				}
			}
		})
	}
}

func TestGenerateCompletionUnsupportedShell(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := GenerateCompletion(&out, "tcsh", nil, nil); err == nil {
		t.Error("GenerateCompletion accepted an unsupported shell")
	}
}
