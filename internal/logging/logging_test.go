package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelRouting(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(NewHandler(&stdout, &stderr, Options{Level: slog.LevelInfo}))

	logger.Debug("hidden")
	logger.Info("hello", "item", 1)
	logger.Warn("careful")
	logger.Error("broken")

	out := stdout.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "careful") {
		t.Errorf("stdout missing info/warn records: %q", out)
	}
	if strings.Contains(out, "broken") {
		t.Error("error record written to stdout")
	}
	if !strings.Contains(stderr.String(), "broken") {
		t.Errorf("stderr missing error record: %q", stderr.String())
	}
}

func TestWithAttrsKeepsRouting(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(NewHandler(&stdout, &stderr, Options{Level: slog.LevelDebug, JSON: true})).
		With("component", "test")

	logger.Debug("detail")
	logger.Error("fail")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &rec); err != nil {
		t.Fatalf("stdout is not a json record: %v", err)
	}
	if rec["component"] != "test" || rec["msg"] != "detail" {
		t.Errorf("unexpected record %v", rec)
	}
	if !strings.Contains(stderr.String(), `"component":"test"`) {
		t.Errorf("stderr missing attrs: %q", stderr.String())
	}
}

func TestSetupWritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "locography.log")
	cleanup := Setup(Options{Level: slog.LevelInfo, File: path, MaxSize: 1})
	slog.Info("written to file")
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing record: %q", data)
	}
}
