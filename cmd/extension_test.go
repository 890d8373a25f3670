package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestRunExtension(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("extensions are shell scripts")
	}
	dir := t.TempDir()
	script := `#!/bin/sh
echo "args=$*"
echo "` + EnvPortfolioFile + `=$` + EnvPortfolioFile + `"
echo "` + EnvVerbose + `=$` + EnvVerbose + `"
exit 3
`
	if err := os.WriteFile(filepath.Join(dir, "aut-hello"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	oldPortfolio, oldVerbose := *portfolioFile, *verbose
	t.Cleanup(func() { *portfolioFile, *verbose = oldPortfolio, oldVerbose })
	*portfolioFile = filepath.Join(dir, "p.jsonl")
	*verbose = true

	var out bytes.Buffer
	oldOut := stdout
	stdout = &out
	t.Cleanup(func() { stdout = oldOut })

	found, code := RunExtension("hello", []string{"a", "b"})
	if !found {
		t.Fatal("RunExtension(hello) not found")
	}
	if code != 3 {
		t.Errorf("RunExtension(hello) exit code = %d, want 3", code)
	}
	for _, want := range []string{
		"args=a b",
		EnvPortfolioFile + "=" + *portfolioFile,
		EnvVerbose + "=true",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("extension output does not contain %q:\n%s", want, out.String())
		}
	}

	if found, _ := RunExtension("missing", nil); found {
		t.Error("RunExtension(missing) found, want not found")
	}
}
