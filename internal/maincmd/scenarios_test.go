package maincmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vellum-lang/vellum/internal/filetest"
)

// TestScenarios drives each fixture under testdata/scenarios through the
// same Cmd entry point the built binary uses (Run for the bytecode machine,
// Classic for the tree-walking evaluator), asserting stdout, stderr and the
// process exit code the fixture's front matter describes end to end,
// exactly as a user invoking the vellum binary would observe them.
func TestScenarios(t *testing.T) {
	for _, sc := range filetest.LoadScenarios(t, filepath.Join("testdata", "scenarios"), ".vl") {
		t.Run(sc.Name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, sc.Name)
			require.NoError(t, os.WriteFile(path, []byte(sc.Source), 0o600))

			var stdout, stderr bytes.Buffer
			stdio := mainer.Stdio{Stdout: &stdout, Stderr: &stderr}

			c := &Cmd{}
			var err error
			switch sc.Meta.Mode {
			case "classic":
				err = c.Classic(context.Background(), stdio, []string{path})
			case "run", "":
				err = c.Run(context.Background(), stdio, []string{path})
			default:
				t.Fatalf("unknown scenario mode %q", sc.Meta.Mode)
			}

			var code mainer.ExitCode
			var ce *codedError
			if errors.As(err, &ce) {
				code = ce.code
			} else if err != nil {
				t.Fatalf("unexpected untyped error: %s", err)
			}
			assert.Equal(t, mainer.ExitCode(sc.Meta.ExitCode), code)

			if sc.Meta.Want != "" {
				assert.Equal(t, sc.Meta.Want, stdout.String())
			}
			if sc.Meta.Contains != "" {
				assert.Contains(t, stdout.String(), sc.Meta.Contains)
			}
			if sc.Meta.Stderr != "" {
				assert.True(t, strings.Contains(stderr.String(), sc.Meta.Stderr),
					"stderr %q does not contain %q", stderr.String(), sc.Meta.Stderr)
			}
		})
	}
}
