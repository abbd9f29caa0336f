package ingestor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/log-payload/internal/config"
)

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func receive(t *testing.T, out <-chan Batch) Batch {
	t.Helper()
	select {
	case batch := <-out:
		return batch
	case <-time.After(3 * time.Second): // File system events can be slow
		t.Fatal("timeout waiting for batch")
		return Batch{}
	}
}

func texts(b Batch) []string {
	out := make([]string, len(b.Messages))
	for i, m := range b.Messages {
		out[i] = m.String()
	}
	return out
}

func TestDirIngestor(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "app.log")

	// Existing content is skipped; tailing starts at the end
	appendFile(t, logFile, "line 0\n")

	cfg := config.WatchConfig{
		Dir:      tmpDir,
		Pattern:  "*.log",
		Debounce: 50 * time.Millisecond,
	}

	ingestor := NewDirIngestor(cfg, zerolog.Nop())
	assert.Equal(t, "dir:"+tmpDir, ingestor.Name())

	out := make(chan Batch, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = ingestor.Start(ctx, out)
	}()

	// Wait for startup
	time.Sleep(100 * time.Millisecond)

	appendFile(t, logFile, "line 1\nline 2\npartial")

	batch := receive(t, out)
	assert.Equal(t, logFile, batch.Source)
	assert.Equal(t, []string{"line 1", "line 2"}, texts(batch))

	// Completing the partial line releases it
	appendFile(t, logFile, " line\n{\"k\":\"v\"}\n")

	batch = receive(t, out)
	assert.Equal(t, []string{"partial line", `{"k":"v"}`}, texts(batch))
	assert.True(t, batch.Messages[1].IsObject())

	// Test Rotation (Move and Recreate)
	require.NoError(t, os.Rename(logFile, logFile+".1"))
	appendFile(t, logFile, "line 3\n")

	batch = receive(t, out)
	assert.Equal(t, []string{"line 3"}, texts(batch))
}

func TestDirIngestor_IgnoresUnmatched(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := config.WatchConfig{
		Dir:      tmpDir,
		Pattern:  "*.log",
		Exclude:  []string{"*.skip.log"},
		Debounce: 50 * time.Millisecond,
	}

	ingestor := NewDirIngestor(cfg, zerolog.Nop())
	out := make(chan Batch, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = ingestor.Start(ctx, out)
	}()
	time.Sleep(100 * time.Millisecond)

	appendFile(t, filepath.Join(tmpDir, "notes.txt"), "ignored\n")
	appendFile(t, filepath.Join(tmpDir, "app.skip.log"), "ignored\n")
	appendFile(t, filepath.Join(tmpDir, "app.log"), "kept\n")

	batch := receive(t, out)
	assert.Equal(t, filepath.Join(tmpDir, "app.log"), batch.Source)
	assert.Equal(t, []string{"kept"}, texts(batch))

	select {
	case extra := <-out:
		t.Fatalf("unexpected batch from %s", extra.Source)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDirIngestor_Exclude(t *testing.T) {
	cfg := config.WatchConfig{
		Dir:     "/var/log/app",
		Pattern: "*.log",
		Exclude: []string{"*.exclude.log"},
	}

	ingestor := NewDirIngestor(cfg, zerolog.Nop())

	assert.True(t, ingestor.isExcluded("/var/log/app/test.exclude.log"))
	assert.False(t, ingestor.isExcluded("/var/log/app/test.log"))
	assert.True(t, ingestor.matches("/var/log/app/test.log"))
	assert.False(t, ingestor.matches("/var/log/other/test.log"))
	assert.False(t, ingestor.matches("/var/log/app/test.exclude.log"))
}

func TestDirIngestor_MissingDir(t *testing.T) {
	ingestor := NewDirIngestor(config.WatchConfig{Dir: filepath.Join(t.TempDir(), "missing")}, zerolog.Nop())
	out := make(chan Batch)
	err := ingestor.Start(context.Background(), out)
	assert.Error(t, err)

	_, ok := <-out
	assert.False(t, ok, "output channel is closed on error")
}
