package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/imgblend/internal/logging"
)

// runCLI executes the root command with args against a config path inside a
// temp directory, so the user's own configuration is never read.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(logging.EnvLevel, "error")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func tempConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "imgblend.toml")
}

func writePNG(t *testing.T, dir, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "imgblend "+Version) || !strings.Contains(out, "Git commit") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output should name the file, got %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Error("second init without --overwrite should fail")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Errorf("init with --overwrite failed: %v", err)
	}

	out, _, err = runCLI(t, "", "--config", target, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "iterations = 200") {
		t.Errorf("config show should print the sample defaults, got %q", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	path := tempConfig(t)
	if err := os.WriteFile(path, []byte("[bench]\niterations = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, "", "--config", path, "bench"); err == nil {
		t.Error("bench should fail with an invalid config")
	}
}

func TestBlendCommand(t *testing.T) {
	dir := t.TempDir()
	base := writePNG(t, dir, "base.png", 6, 4, color.NRGBA{0, 0, 0, 255})
	top := writePNG(t, dir, "top.png", 6, 4, color.NRGBA{0, 200, 0, 255})
	out := filepath.Join(dir, "out.png")

	_, stderr, err := runCLI(t, "", "--config", tempConfig(t), "blend", "-o", out, base, top)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if !strings.Contains(stderr, "2 layers") {
		t.Errorf("unexpected stderr %q", stderr)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	got := color.NRGBAModel.Convert(img.At(3, 2)).(color.NRGBA)
	if got != (color.NRGBA{0, 200, 0, 255}) {
		t.Errorf("opaque top layer should win, got %v", got)
	}
}

func TestBlendCommand_Stdout(t *testing.T) {
	dir := t.TempDir()
	base := writePNG(t, dir, "base.png", 2, 2, color.NRGBA{1, 2, 3, 255})

	stdout, _, err := runCLI(t, "", "--config", tempConfig(t), "blend", "-o", "-", base)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "\x89PNG") {
		t.Error("blend -o - should write PNG bytes to stdout")
	}
}

func TestBlendCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, "", "--config", tempConfig(t), "blend"); err == nil {
		t.Error("blend without files should fail")
	}
	if _, _, err := runCLI(t, "", "--config", tempConfig(t), "blend", filepath.Join(dir, "missing.png")); err == nil {
		t.Error("blend of a missing file should fail")
	}
	if _, _, err := runCLI(t, "", "--config", tempConfig(t), "blend", "-o", filepath.Join(dir, "o.png"), bad); err == nil {
		t.Error("blend of a corrupt file should fail")
	}
}

func TestBenchCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "first.png")

	stdout, _, err := runCLI(t, "", "--config", tempConfig(t), "bench",
		"-n", "6", "--concurrency", "2", "--layers", "3", "--size", "8", "-o", out)
	if err != nil {
		t.Fatalf("bench failed: %v", err)
	}
	for _, want := range []string{"Iterations/s", "chain", "Failures"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report missing %q:\n%s", want, stdout)
		}
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("first output not written: %v", err)
	}
}

func TestBenchCommand_BlendModeWithFixtures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "0.png", 4, 4, color.NRGBA{255, 0, 0, 255})
	writePNG(t, dir, "1.png", 4, 4, color.NRGBA{0, 0, 255, 128})

	stdout, _, err := runCLI(t, "", "--config", tempConfig(t), "bench",
		"-n", "4", "--mode", "blend", "--layers", "2", "--fixtures", dir)
	if err != nil {
		t.Fatalf("bench failed: %v", err)
	}
	if !strings.Contains(stdout, "blend") {
		t.Errorf("report should name the mode:\n%s", stdout)
	}
}

func TestBenchCommand_InvalidFlag(t *testing.T) {
	if _, _, err := runCLI(t, "", "--config", tempConfig(t), "bench", "--mode", "serial"); err == nil {
		t.Error("unknown mode should fail validation")
	}
}

func TestServeCommand(t *testing.T) {
	stdin := `{"jsonrpc":"2.0","id":7,"method":"ping"}` + "\n"
	stdout, _, err := runCLI(t, stdin, "--config", tempConfig(t), "serve")
	if err != nil {
		t.Fatalf("serve failed: %v", err)
	}
	if !strings.Contains(stdout, `"id":7`) {
		t.Errorf("serve should answer the ping, got %q", stdout)
	}
}
