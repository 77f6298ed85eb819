package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

var sampleLines = []string{
	`192.168.1.1 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 2048 "-" "Mozilla/5.0" 120`,
	`192.168.1.1 - - [10/Oct/2023:13:56:01 +0000] "GET /index.html HTTP/1.1" 200 1024 "-" "Mozilla/5.0" 80`,
	`10.0.0.7 - - [10/Oct/2023:14:10:00 +0000] "POST /api/login HTTP/1.1" 401 128 "-" "Googlebot/2.1" 1500`,
	`10.0.0.8 - - [10/Oct/2023:16:00:00 +0000] "GET /missing HTTP/1.1" 500 0 "-" "curl/8.0" 20`,
}

// writeLog writes lines to name inside dir and returns the path.
func writeLog(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}
