package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/tuaneric255-blip/Imaxai/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{logging.LevelDebug, zapcore.DebugLevel},
		{logging.LevelInfo, zapcore.InfoLevel},
		{logging.LevelWarn, zapcore.WarnLevel},
		{logging.LevelError, zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := logging.ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_ConsoleLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closeFn := logging.New(logging.Options{Level: logging.LevelWarn, Console: &buf})
	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "shown 2") {
		t.Errorf("output = %q", out)
	}
}

func TestNew_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "imaxai.log")
	var console bytes.Buffer
	logger, closeFn := logging.New(logging.Options{Level: logging.LevelDebug, Console: &console, File: path})
	logger.Debugf("request %s", "abc")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("log line is not JSON: %q", data)
	}
	if line["message"] != "request abc" || line["lvl"] != "DEBUG" {
		t.Errorf("line = %v", line)
	}
	if !strings.Contains(console.String(), "request abc") {
		t.Errorf("console = %q", console.String())
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	l := logging.Nop()
	l.Debugf("x")
	l.Errorf("y")
}
