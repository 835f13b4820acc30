//go:build mage

// Package main contains Mage build targets for sheetpress developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "sheetpress"
	cmdPkg     = "./cmd/sheetpress"
	samplesDir = "samples"
)

// Default is the target run by a bare `mage`.
var Default = Build

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Build compiles the CLI binary into bin/, stamping the version from git
// when available.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath(), cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", binPath(), version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// sampleSheets seeds samples/ with inputs covering the segmentation cases:
// several blocks, consecutive blank lines, tabs, and non-ASCII text.
var sampleSheets = map[string]string{
	"Cheatsheet_Git.txt": `git status
git diff --staged

git log --oneline --graph
git log -p -- path/to/file


git stash push -m "wip"
git stash pop
`,
	"Cheatsheet_Shell.txt": "cd -\t\t# previous directory\npushd /tmp\npopd\n\nfind . -name '*.go' | xargs wc -l\n",
	"Cheatsheet_Unicode.txt": "café → naïve\n€ 100\n\n┌─ box drawing ─┐\n",
}

// Samples writes the sample cheatsheets into samples/.
func Samples() error {
	if err := os.MkdirAll(samplesDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", samplesDir, err)
	}
	for name, content := range sampleSheets {
		path := filepath.Join(samplesDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}
	return nil
}

// Convert builds the binary and converts the sample cheatsheets.
func Convert() error {
	mg.Deps(Build, Samples)
	return sh.RunV(binPath(), "convert", "--dir", samplesDir)
}

// Clean removes build output and generated samples.
func Clean() error {
	for _, dir := range []string{binDir, samplesDir} {
		if err := sh.Rm(dir); err != nil {
			return err
		}
	}
	return nil
}

// Stats prints Go production and test line counts.
func Stats() error {
	var prod, tests int
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, "_test.go") {
			tests += n
		} else {
			prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)
	return nil
}

// countLines counts non-blank lines in the file at path.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
