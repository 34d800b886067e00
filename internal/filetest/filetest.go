package filetest

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"gopkg.in/yaml.v3"
)

var testUpdateAllTests = flag.Bool("test.update-all-tests", false, "If set, sets all test.update-*-tests.")

// SourceFiles returns the list of source files in dir corresponding to the
// specified extension.
func SourceFiles(t *testing.T, dir, ext string) []os.FileInfo {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	res := make([]os.FileInfo, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() {
			continue
		}
		if ext != "" && filepath.Ext(dent.Name()) != ext {
			continue
		}
		fi, err := dent.Info()
		if err != nil {
			t.Fatal(err)
		}
		res = append(res, fi)
	}
	return res
}

// DiffOutput validates that output is the same as the expected result in the
// corresponding golden file. If updateFlag is true, it updates the golden file
// with output instead.
func DiffOutput(t *testing.T, fi os.FileInfo, output, resultDir string, updateFlag *bool) {
	t.Helper()
	DiffCustom(t, fi, "output", ".want", output, resultDir, updateFlag)
}

// DiffErrors validates that the errors output is the same as the expected
// result in the corresponding golden file. If updateFlag is true, it updates
// the golden file with output instead.
func DiffErrors(t *testing.T, fi os.FileInfo, output, resultDir string, updateFlag *bool) {
	t.Helper()
	DiffCustom(t, fi, "errors", ".err", output, resultDir, updateFlag)
}

// DiffCustom is the general version of DiffOutput and DiffErrors, to check
// for any other kind of output file. Just provide a label to use in the
// error logs (e.g. "output", "errors", "comments") and the file extension
// to use for the golden file (including the leading dot) in addition to the
// same arguments as for DiffOutput.
func DiffCustom(t *testing.T, fi os.FileInfo, label, ext, output, resultDir string, updateFlag *bool) {
	t.Helper()

	wantFile := filepath.Join(resultDir, fi.Name()+ext)
	diffOrUpdate(t, label, wantFile, output, updateFlag)
}

func diffOrUpdate(t *testing.T, label, goldFile, output string, updateFlag *bool) {
	if *updateFlag || *testUpdateAllTests {
		if err := os.WriteFile(goldFile, []byte(output), 0600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if testing.Verbose() {
		t.Logf("got %s:\n%s\n", label, output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want %s:\n%s\n", label, want)
		}
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}

// Meta is a scenario fixture's YAML front matter: everything an end-to-end
// driver needs to know about a fixture beyond its source body. ExitCode
// defaults to 0 (success) when omitted; Want and Contains are mutually
// exclusive ways to describe the expected stdout, a bare substring being
// more convenient than a byte-exact golden block for a short scenario.
type Meta struct {
	Mode     string `yaml:"mode"` // "run" or "classic"; defaults to "run"
	ExitCode int    `yaml:"exit_code"`
	Want     string `yaml:"want"`
	Contains string `yaml:"contains"`
	Stderr   string `yaml:"stderr"` // substring expected in stderr, if any
}

// Scenario is one fixture file split into its front matter and the source
// it describes.
type Scenario struct {
	Name   string
	Meta   Meta
	Source string
}

// LoadScenarios reads every file with the given extension in dir and
// splits each into a Scenario: a YAML document between a pair of "---"
// delimiter lines at the top of the file, followed by the source code the
// front matter describes. A file with no leading "---" line is treated as
// a bare scenario with zero-value Meta (exit code 0, no output assertion).
func LoadScenarios(t *testing.T, dir, ext string) []Scenario {
	t.Helper()

	scenarios := make([]Scenario, 0, len(SourceFiles(t, dir, ext)))
	for _, fi := range SourceFiles(t, dir, ext) {
		path := filepath.Join(dir, fi.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}

		meta, src, err := splitFrontMatter(string(b))
		if err != nil {
			t.Fatalf("%s: %s", path, err)
		}
		scenarios = append(scenarios, Scenario{Name: fi.Name(), Meta: meta, Source: src})
	}
	return scenarios
}

func splitFrontMatter(content string) (Meta, string, error) {
	const delim = "---\n"

	if !strings.HasPrefix(content, delim) {
		return Meta{}, content, nil
	}

	rest := content[len(delim):]
	end := strings.Index(rest, delim)
	if end < 0 {
		return Meta{}, "", fmt.Errorf("unterminated front matter: missing closing %q", "---")
	}

	var meta Meta
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return Meta{}, "", fmt.Errorf("invalid front matter: %w", err)
	}
	return meta, rest[end+len(delim):], nil
}
