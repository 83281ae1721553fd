package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ironsheep/imgblend/internal/logging"
)

func TestNew_JSON(t *testing.T) {
	t.Setenv(logging.EnvLevel, "")
	var buf bytes.Buffer

	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("composited", "layers", 5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "composited" {
		t.Errorf("msg: got %v, want composited", rec["msg"])
	}
	if rec["layers"] != float64(5) {
		t.Errorf("layers: got %v, want 5", rec["layers"])
	}
}

func TestNew_AutoPicksJSONForNonTerminal(t *testing.T) {
	t.Setenv(logging.EnvLevel, "")
	var buf bytes.Buffer

	logger, err := logging.New(logging.Options{Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output for a buffer, got %q", buf.String())
	}
}

func TestNew_Text(t *testing.T) {
	t.Setenv(logging.EnvLevel, "")
	var buf bytes.Buffer

	logger, err := logging.New(logging.Options{Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestNew_EnvOverridesLevel(t *testing.T) {
	t.Setenv(logging.EnvLevel, "debug")
	var buf bytes.Buffer

	logger, err := logging.New(logging.Options{Level: "error", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug record missing with %s=debug: %q", logging.EnvLevel, buf.String())
	}
	if !strings.Contains(buf.String(), ".go:") {
		t.Errorf("debug logging should include source, got %q", buf.String())
	}
}

func TestNew_Rejects(t *testing.T) {
	t.Setenv(logging.EnvLevel, "")
	tests := []struct {
		name string
		opts logging.Options
	}{
		{"format", logging.Options{Format: "xml"}},
		{"level", logging.Options{Level: "verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Output = &bytes.Buffer{}
			if _, err := logging.New(tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestNewNop(t *testing.T) {
	logger := logging.NewNop()
	if logger == nil {
		t.Fatal("NewNop returned nil")
	}
	logger.Error("dropped")
}
