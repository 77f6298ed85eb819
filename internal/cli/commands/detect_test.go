package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/accesslens/pkg/config"
	"github.com/ccollicutt/accesslens/pkg/detector"
)

var commonLines = []string{
	`192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 2326`,
	`192.168.1.2 - - [10/Oct/2023:13:55:37 +0000] "GET /about HTTP/1.1" 404 -`,
}

func TestOutputDetectText(t *testing.T) {
	result := detector.New().DetectFromLines(sampleLines)

	var buf bytes.Buffer
	if err := outputDetectText(&buf, result, "access.log", &DetectOptions{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"=== Access Log Format Detection ===",
		"File: access.log",
		"Lines sampled: 4",
		"Detected Format: Extended (Combined + response time)",
		"Confidence: 100.0% (4/4 lines matched)",
		"Parsed as: 192.168.1.1 GET /index.html -> 200 (2048 bytes) at 2023-10-10T13:55:36+00:00",
		"Strict mode: safe",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestOutputDetectText_NoMatch(t *testing.T) {
	result := detector.New().DetectFromLines([]string{"not a log line", "neither is this"})

	var buf bytes.Buffer
	if err := outputDetectText(&buf, result, "junk.log", &DetectOptions{}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "No access log format detected.") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestOutputDetectText_ShowAll(t *testing.T) {
	lines := append(append([]string{}, sampleLines...), commonLines...)
	result := detector.New().DetectFromLines(lines)

	var buf bytes.Buffer
	if err := outputDetectText(&buf, result, "mixed.log", &DetectOptions{ShowAll: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "--- Alternative formats detected ---") {
		t.Errorf("missing alternatives section:\n%s", out)
	}
	if !strings.Contains(out, "2. Common Log Format (CLF)") {
		t.Errorf("missing common format alternative:\n%s", out)
	}
}

func TestRunDetect_JSON(t *testing.T) {
	lines := append(append([]string{}, sampleLines...), commonLines...)
	logPath := writeLog(t, t.TempDir(), "access.log", lines...)

	t.Run("best match only", func(t *testing.T) {
		out, err := execute(t, NewDetectCommand(), "-f", "json", logPath)
		if err != nil {
			t.Fatalf("detect failed: %v", err)
		}

		var got JSONOutput
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		// ParsedLines counts the best grammar only.
		if got.SampledLines != 6 || got.ParsedLines != 4 {
			t.Errorf("sampled/parsed = %d/%d, want 6/4", got.SampledLines, got.ParsedLines)
		}
		if len(got.Matches) != 1 {
			t.Fatalf("matches = %d, want 1", len(got.Matches))
		}
		if got.Matches[0].Format != "extended" {
			t.Errorf("best format = %q, want extended", got.Matches[0].Format)
		}
		if !got.StrictSafe {
			t.Error("every line matched a grammar, strict_safe should be true")
		}
	})

	t.Run("all matches", func(t *testing.T) {
		out, err := execute(t, NewDetectCommand(), "-f", "json", "--all", logPath)
		if err != nil {
			t.Fatalf("detect failed: %v", err)
		}

		var got JSONOutput
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Matches) != 2 {
			t.Errorf("matches = %d, want 2", len(got.Matches))
		}
	})
}

func TestRunDetect_MissingFile(t *testing.T) {
	_, err := execute(t, NewDetectCommand(), "/nonexistent/access.log")
	if err == nil || !strings.Contains(err.Error(), "detection failed") {
		t.Errorf("Expected detection failure, got %v", err)
	}
}

func TestRunDetect_WriteConfig(t *testing.T) {
	dir := t.TempDir()
	logPath := writeLog(t, dir, "access.log", sampleLines...)
	configPath := filepath.Join(dir, "accesslens.yaml")

	out, err := execute(t, NewDetectCommand(), "-w", configPath, logPath)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if !strings.Contains(out, "Wrote starter config to: "+configPath) {
		t.Errorf("missing write confirmation:\n%s", out)
	}

	cfg, err := config.Load(context.Background(), configPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if !cfg.Parsing.StrictMode {
		t.Error("clean sample should enable strict mode")
	}

	// Second run must not overwrite.
	_, err = execute(t, NewDetectCommand(), "-w", configPath, logPath)
	if err == nil || !strings.Contains(err.Error(), "will not overwrite") {
		t.Errorf("Expected overwrite refusal, got %v", err)
	}
}

func TestWriteStarterConfig_NoMatch(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "accesslens.yaml")
	result := detector.New().DetectFromLines([]string{"junk"})

	var buf bytes.Buffer
	err := writeStarterConfig(&buf, result, "junk.log", configPath)
	if err == nil {
		t.Fatal("Expected error without a detected format")
	}
	if _, statErr := os.Stat(configPath); !os.IsNotExist(statErr) {
		t.Error("config file should not be written")
	}
}

func TestGenerateStarterConfig(t *testing.T) {
	t.Run("extended with bad line", func(t *testing.T) {
		result := detector.New().DetectFromLines(append(append([]string{}, sampleLines...), "garbage"))
		content := generateStarterConfig("access.log", result)

		if !strings.Contains(content, "# Detected format: Extended (Combined + response time)") {
			t.Errorf("missing detected format header:\n%s", content)
		}
		if !strings.Contains(content, "try --performance") {
			t.Error("extended format should suggest --performance")
		}

		var cfg config.Config
		if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
			t.Fatalf("generated YAML invalid: %v", err)
		}
		if cfg.Parsing.StrictMode {
			t.Error("sample with an unparseable line should not enable strict mode")
		}
		if cfg.Analytics.TopN != 10 {
			t.Errorf("top_n = %d, want 10", cfg.Analytics.TopN)
		}
	})

	t.Run("common", func(t *testing.T) {
		result := detector.New().DetectFromLines(commonLines)
		content := generateStarterConfig("access.log", result)

		if !strings.Contains(content, "response times are not logged") {
			t.Errorf("common format should note missing response times:\n%s", content)
		}
	})
}
