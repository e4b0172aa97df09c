package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blinkenlichten/webgrep/internal/config"
	"github.com/blinkenlichten/webgrep/internal/model"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [url...]" {
			t.Errorf("expected use 'crawl [url...]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	flagTests := []struct {
		name      string
		shorthand string
	}{
		{"grep", "g"},
		{"max-links", "l"},
		{"threads", "n"},
		{"max-nodes", ""},
		{"timeout", "t"},
		{"proxy", "x"},
		{"force", "f"},
		{"batch", "b"},
		{"config", "c"},
		{"json", "j"},
		{"markdown", "m"},
		{"output", "o"},
	}
	for _, tt := range flagTests {
		tt := tt
		t.Run("has "+tt.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
		})
	}
}

// TestBuildConfig tests flag and file merging into a Config.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults and targets", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.Flags().Parse([]string{}); err != nil {
			t.Fatalf("parse: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"http://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Targets) != 1 || cfg.Targets[0] != "http://example.com/" {
			t.Errorf("Targets = %v", cfg.Targets)
		}
		if cfg.MaxLinks != config.DefaultMaxLinks {
			t.Errorf("MaxLinks = %d, want default %d", cfg.MaxLinks, config.DefaultMaxLinks)
		}
		if cfg.Threads != config.DefaultThreads {
			t.Errorf("Threads = %d, want default %d", cfg.Threads, config.DefaultThreads)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		err := cmd.Flags().Parse([]string{
			"--grep", "needle",
			"--max-links", "7",
			"--threads", "2",
			"--timeout", "5s",
			"--proxy", "127.0.0.1:9050",
			"--json",
		})
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"http://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.GrepExpr != "needle" {
			t.Errorf("GrepExpr = %q", cfg.GrepExpr)
		}
		if cfg.MaxLinks != 7 {
			t.Errorf("MaxLinks = %d, want 7", cfg.MaxLinks)
		}
		if cfg.Threads != 2 {
			t.Errorf("Threads = %d, want 2", cfg.Threads)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
		}
		if cfg.ProxyAddress != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress = %q", cfg.ProxyAddress)
		}
		if !cfg.JSONReport {
			t.Error("JSONReport should be set")
		}
	})

	t.Run("loads config file values", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "webgrep.yaml")
		yaml := "grep: haystack\nmaxLinks: 11\nthreads: 3\n"
		if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cmd := NewCrawlCmd()
		if err := cmd.Flags().Parse([]string{"--config", path}); err != nil {
			t.Fatalf("parse: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"http://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.GrepExpr != "haystack" {
			t.Errorf("GrepExpr = %q, want value from file", cfg.GrepExpr)
		}
		if cfg.MaxLinks != 11 {
			t.Errorf("MaxLinks = %d, want 11", cfg.MaxLinks)
		}
		if cfg.Threads != 3 {
			t.Errorf("Threads = %d, want 3", cfg.Threads)
		}
	})

	t.Run("explicit flag beats config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "webgrep.yaml")
		if err := os.WriteFile(path, []byte("grep: haystack\nthreads: 3\n"), 0600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cmd := NewCrawlCmd()
		if err := cmd.Flags().Parse([]string{"--config", path, "--grep", "needle"}); err != nil {
			t.Fatalf("parse: %v", err)
		}

		cfg, err := buildConfig(cmd, []string{"http://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.GrepExpr != "needle" {
			t.Errorf("GrepExpr = %q, flag should win", cfg.GrepExpr)
		}
		if cfg.Threads != 3 {
			t.Errorf("Threads = %d, untouched flag should keep file value", cfg.Threads)
		}
	})

	t.Run("missing explicit config file errors", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.Flags().Parse([]string{"--config", "/nonexistent/webgrep.yaml"}); err != nil {
			t.Fatalf("parse: %v", err)
		}

		_, err := buildConfig(cmd, []string{"http://example.com/"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestOutputReport tests format selection.
func TestOutputReport(t *testing.T) {
	t.Parallel()

	sample := &model.CrawlReport{
		Seed:        "http://example.com/",
		Expression:  "needle",
		GeneratedAt: time.Now(),
		Pages: []model.PageResult{
			{URL: "http://example.com/", StatusCode: 200, Fetched: true, Parsed: true},
		},
	}

	t.Run("defaults to text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cfg := config.NewConfig()

		if err := outputReport(cfg, sample, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "WEBGREP CRAWL REPORT") {
			t.Error("expected text report header")
		}
	})

	t.Run("json flag selects JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.JSONReport = true

		if err := outputReport(cfg, sample, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed struct {
			Version string             `json:"version"`
			Report  *model.CrawlReport `json:"report"`
		}
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if parsed.Report == nil || parsed.Report.Seed != "http://example.com/" {
			t.Errorf("wrapped report lost content: %+v", parsed.Report)
		}
	})

	t.Run("markdown flag selects Markdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.MarkdownReport = true

		if err := outputReport(cfg, sample, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "# Webgrep Crawl Report") {
			t.Error("expected markdown report header")
		}
	})
}

// TestRunCrawlCmd runs a crawl end to end against a local server.
func TestRunCrawlCmd(t *testing.T) {
	t.Run("crawls and writes report file", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head><title>Home</title></head><body>the needle is here</body></html>`))
		}))
		defer srv.Close()

		reportPath := filepath.Join(t.TempDir(), "out", "report.txt")

		cmd := NewCrawlCmd()
		cmd.SetArgs([]string{"--grep", "needle", "-o", reportPath, srv.URL + "/"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		output := string(content)

		if !strings.Contains(output, "WEBGREP CRAWL REPORT") {
			t.Error("expected report header in file")
		}
		if !strings.Contains(output, srv.URL) {
			t.Error("expected seed URL in report")
		}
		if !strings.Contains(output, "needle") {
			t.Error("expected match excerpt in report")
		}
	})

	t.Run("rejects missing expression", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cmd.SetArgs([]string{"http://example.com/"})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true

		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected configuration error")
		}
		if !strings.Contains(err.Error(), "configuration error") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects missing targets", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cmd.SetArgs([]string{"--grep", "needle"})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true

		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected configuration error")
		}
	})
}
