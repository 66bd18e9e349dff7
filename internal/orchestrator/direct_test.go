package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyDirect(t *testing.T) {
	cases := []struct {
		text string
		kind directOpKind
		arg  string
	}{
		{"run: ls -la", opRunCommand, "ls -la"},
		{"execute command: python3 main.py", opRunCommand, "python3 main.py"},
		{"run `echo hi`", opRunCommand, "echo hi"},
		{"read file: notes.txt", opReadFile, "notes.txt"},
		{"show file `src/main.go`", opReadFile, "src/main.go"},
		{"list files", opListFiles, ""},
		{"show the workspace", opListFiles, ""},
		{"please run the analysis again", opNone, ""},
		{"what does this file do?", opNone, ""},
		{"", opNone, ""},
	}
	for _, tc := range cases {
		op := classifyDirect(tc.text)
		require.Equal(t, tc.kind, op.kind, "text: %q", tc.text)
		if tc.arg != "" {
			require.Equal(t, tc.arg, op.arg, "text: %q", tc.text)
		}
	}
}
