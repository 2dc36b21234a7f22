package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"generate", "update", "list", "cleanup", "config", "serve"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{addr: ":8080", want: "localhost:8080"},
		{addr: "127.0.0.1:9000", want: "127.0.0.1:9000"},
		{addr: "", want: ""},
	}

	for _, tt := range tests {
		got := displayAddr(tt.addr)
		if got != tt.want {
			t.Errorf("displayAddr(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected untouched string, got %q", got)
	}

	if got := truncate("简历生成器测试", 3); got != "简历生…" {
		t.Errorf("Expected rune-safe truncation, got %q", got)
	}
}

func TestGenerateFlags(t *testing.T) {
	for _, name := range []string{"profile", "docs", "jd", "template", "theme", "format", "language", "style", "output-dir", "no-cleanup", "content"} {
		if generateCmd.Flags().Lookup(name) == nil {
			t.Errorf("generate is missing --%s", name)
		}
	}

	for _, name := range []string{"verbose", "config", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("root is missing --%s", name)
		}
	}
}

func TestGenerateReportsPartialFailure(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "profiles")
	templates := filepath.Join(dir, "templates")
	if err := os.Mkdir(templates, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// an unparsable html template fails that format only
	writeFile(t, filepath.Join(templates, "default.html.tmpl"), "{{ .Name ")
	writeFile(t, filepath.Join(dir, "config.json"), `{"output_dir": "`+store+`", "template_dir": "`+templates+`"}`)
	writeFile(t, filepath.Join(dir, "resume.json"), `{"name": "Jane Doe", "skills": [{"skill": "Go", "level": "Expert"}]}`)

	t.Setenv("CVFORGE_OUTPUT_DIR", "")
	t.Setenv("CVFORGE_TEMPLATE_DIR", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"generate",
		"--config", filepath.Join(dir, "config.json"),
		"--profile", "Jane Doe",
		"--content", filepath.Join(dir, "resume.json"),
		"--format", "markdown,html",
	})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		t.Fatalf("Expected partial success to exit cleanly, got %v", err)
	}

	got := out.String()
	for _, want := range []string{"Created Jane_Doe version", "Warning: html output failed", "1 of 2 formats failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}

	matches, err := filepath.Glob(filepath.Join(store, "Jane_Doe", "v*", "Jane_Doe.v*.md"))
	if err != nil || len(matches) != 1 {
		t.Errorf("Expected one markdown artifact, got %v (%v)", matches, err)
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
