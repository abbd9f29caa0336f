package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/log-payload/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func inflate(t *testing.T, data []byte) string {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestBuild_OutputFile(t *testing.T) {
	dir := t.TempDir()
	in1 := writeFile(t, dir, "a.log", "hello world\n")
	in2 := writeFile(t, dir, "b.log", "{\"message\":\"from json\"}\n")
	out := filepath.Join(dir, "payload.bin")

	_, err := execute(t, "build", "--log-level", "error", "--host-id", "host-1", "--source-id", "src-1", "-o", out, in1, in2)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	envelope := inflate(t, data)
	assert.Contains(t, envelope, "host-1")
	assert.Contains(t, envelope, "src-1")
	assert.Contains(t, envelope, "hello world")
	assert.Contains(t, envelope, "from json")
}

func TestBuild_Base64Stdout(t *testing.T) {
	in := writeFile(t, t.TempDir(), "a.log", "line one\nline two\n")

	stdout, err := execute(t, "build", "--log-level", "error", "--source-id", "src", in)
	require.NoError(t, err)

	line := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(line, "eJ"), "zlib payload should start with eJ, got %q", line)

	data, err := base64.StdEncoding.DecodeString(line)
	require.NoError(t, err)
	assert.Contains(t, inflate(t, data), "line two")
}

func TestBuild_Stdin(t *testing.T) {
	in, err := os.Open(writeFile(t, t.TempDir(), "stdin.log", "from stdin\n{\"message\":\"object line\"}\n"))
	require.NoError(t, err)
	defer in.Close()

	orig := os.Stdin
	os.Stdin = in
	t.Cleanup(func() { os.Stdin = orig })

	stdout, err := execute(t, "build", "--log-level", "error", "--source-id", "src")
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(stdout))
	require.NoError(t, err)
	envelope := inflate(t, data)
	assert.Contains(t, envelope, "from stdin")
	assert.Contains(t, envelope, "object line")
}

func TestBuild_TooLarge(t *testing.T) {
	in := writeFile(t, t.TempDir(), "a.log", strings.Repeat("y", 2000)+"\n")

	_, err := execute(t, "build", "--log-level", "error", "--max-bytes", "500", in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Maximum payload size exceeded")
}

func TestBuild_OutputAndSpoolConflict(t *testing.T) {
	in := writeFile(t, t.TempDir(), "a.log", "x\n")

	_, err := execute(t, "build", "--log-level", "error", "--spool", "-o", "out.bin", in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestBuild_MissingInput(t *testing.T) {
	_, err := execute(t, "build", "--log-level", "error", filepath.Join(t.TempDir(), "missing.log"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, dir, "ok.yaml", "payload:\n  compression: gzip\n")
		out, err := execute(t, "--config", path, "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration valid")
		assert.Contains(t, out, "gzip")
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "payload:\n  compression: brotli\n")
		_, err := execute(t, "--config", path, "validate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "brotli")
	})
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "log-payload dev\n", out)
}

func TestSetupLogging(t *testing.T) {
	assert.Equal(t, "debug", SetupLogging("DEBUG").GetLevel().String())
	assert.Equal(t, "warn", SetupLogging("warning").GetLevel().String())
	assert.Equal(t, "info", SetupLogging("bogus").GetLevel().String())
}

func TestHandleSignals_ReloadValidates(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "payload:\n  compression: brotli\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	reloaded := make(chan *config.Config, 1)
	failed := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		handleSignals(ctx, cancel, sigChan, path,
			func(c *config.Config) { reloaded <- c },
			func(err error) { failed <- err },
			zerolog.Nop())
	}()

	sigChan <- syscall.SIGHUP
	select {
	case err := <-failed:
		assert.Contains(t, err.Error(), "brotli")
	case <-reloaded:
		t.Fatal("invalid config was applied")
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload result")
	}

	require.NoError(t, os.WriteFile(path, []byte("payload:\n  compression: gzip\n"), 0o644))
	sigChan <- syscall.SIGHUP
	select {
	case c := <-reloaded:
		assert.Equal(t, config.CompressionGzip, c.Payload.Compression)
	case err := <-failed:
		t.Fatalf("valid config rejected: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload result")
	}

	sigChan <- syscall.SIGTERM
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not stop on SIGTERM")
	}
	assert.Error(t, ctx.Err())
}
